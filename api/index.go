package handler

import (
	"context"
	"net/http"

	"marketplace-backend/bootstrap"
	"marketplace-backend/internal/interfaces/router"
)

var serve http.HandlerFunc

func init() {
	app, err := bootstrap.New(context.Background())
	if err != nil {
		panic("app create: " + err.Error())
	}
	serve = router.Handler(app.Fiber)
}

// Handler is the Vercel serverless entry point. All requests are rewritten here.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()
	serve(w, r)
}
