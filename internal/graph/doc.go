// Package graph is a small client for the Microsoft Graph users and presence
// endpoints, plus an adapter that exposes it as a directory.Source.
package graph
