// Command moneytracker runs the money tracker HTTP API.
//
// @title                       Money Tracker API
// @version                     1.0
// @description                 Personal finance API: accounts with a running balance, spending categories and expenses.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
