// Package routes serves the login, current-user and logout endpoints of a
// goSession.Engine on a net/http ServeMux.
//
// Login accepts an OAuth2 password-grant style form (username, password) and
// answers 201 with {"access_token", "token_type"}. Current-user resolution is
// delegated to middleware.Guard. Logout answers 204.
//
// Every error kind maps to a status through a fixed table per route. Login
// failures are 400, current-user failures 401 (500 for store failures) and
// logout failures 400.
package routes
