package http

// Route patterns for the LSP HTTP surface.
const (
	routeDeploy         = "/lsp/deploy"
	routeDeployments    = "/lsp/deployments"
	routeDeploymentByID = "/lsp/deployments/{id}"
)

// Route names for mux URL building.
const (
	routeNameDeploy         = "lsp_deploy"
	routeNameDeployments    = "lsp_deployments"
	routeNameDeploymentByID = "lsp_deployment_by_id"
)
