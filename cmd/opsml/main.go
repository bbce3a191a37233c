// Package main is the entry point for the opsml server.
//
//	@title			opsml server API
//	@version		1.0
//	@description	Registry and artifact storage API for versioned ML cards.
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication
package main

func main() {
	Execute()
}
