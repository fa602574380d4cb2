package handlers

import "net/http"

const welcomeMessage = "Welcome to the Sneaker API. Server is running."

// Root answers GET / so load balancers and humans can see the API is up
func Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, welcomeMessage, nil)
}
