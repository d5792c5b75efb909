// Package page renders the frontend's single HTML page. The page talks to
// the proxy endpoints from the browser; the server only renders the shell.
package page
