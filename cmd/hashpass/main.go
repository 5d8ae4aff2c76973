// Command hashpass prints a bcrypt hash for ADMIN_PASSWORD_HASH.
//
//	go run ./cmd/hashpass 'the admin password'
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/park-ledger/internal/utils"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "usage: hashpass <password>")
		os.Exit(2)
	}
	hash, err := utils.HashPassword(os.Args[1], bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Fatal("hash password")
	}
	fmt.Println(hash)
}
