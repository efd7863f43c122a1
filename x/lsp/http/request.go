package http

import (
	"github.com/sx-network/lsp-deployer/x/lsp"
	"github.com/sx-network/lsp-deployer/x/lsp/store"
)

// maxBodyBytes caps POST routeDeploy bodies.
const maxBodyBytes = 64 << 10

// deployResponse is the 201 body of POST routeDeploy: the history id plus the deployment.
type deployResponse struct {
	ID string `json:"id"`
	*lsp.Deployment
}

// listResponse is the body of GET routeDeployments.
type listResponse struct {
	Deployments []store.Record `json:"deployments"`
	Count       int            `json:"count"`
}
