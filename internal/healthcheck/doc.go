// Package healthcheck watches the backend's availability in the background.
// Its findings feed logs and metrics only; the frontend's own /health answer
// does not depend on them.
package healthcheck
