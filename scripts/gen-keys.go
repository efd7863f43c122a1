// Small helper to generate a dev mnemonic and print the first accounts derived from it
// the way the deployer derives them:
// - mnemonic
// - derivation path, private key (hex) and Ethereum address per account
package main

import (
	"flag"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/sx-network/lsp-deployer/x/wallet"
)

func main() {
	count := flag.Uint("accounts", 3, "number of accounts to print")
	mnemonic := flag.String("mnemonic", "", "derive from this mnemonic instead of generating one")
	flag.Parse()

	if *mnemonic == "" {
		entropy, err := bip39.NewEntropy(128)
		if err != nil {
			panic(err)
		}
		m, err := bip39.NewMnemonic(entropy)
		if err != nil {
			panic(err)
		}
		*mnemonic = m
	}
	fmt.Printf("MNEMONIC=%q\n\n", *mnemonic)

	for i := range uint32(*count) {
		key, err := wallet.DeriveKey(*mnemonic, wallet.AccountPath(i))
		if err != nil {
			panic(err)
		}
		fmt.Printf("ACCOUNT%d_PATH=%s\nACCOUNT%d_PRIV=%x\nACCOUNT%d_ADDR=%s\n\n",
			i, key.Path, i, crypto.FromECDSA(key.PrivateKey), i, key.Address().Hex())
	}
}
