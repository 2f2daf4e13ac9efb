// Package mockgraph is an in-memory stand-in for the Microsoft Graph users and
// presence endpoints, for local runs and tests.
package mockgraph
