package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedClubRoutes(mux, handler, verifier)
	registerAuthorizedJoinRequestRoutes(mux, handler, verifier)
	registerAuthorizedOpportunityRoutes(mux, handler, verifier)
	registerAuthorizedApplicationRoutes(mux, handler, verifier)
	registerAuthorizedAffiliationRoutes(mux, handler, verifier)
}

func registerAuthorizedClubRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/clubs", RequireAuth(verifier, http.HandlerFunc(handler.CreateClub)))
	mux.Handle("GET /v1/clubs", RequireAuth(verifier, http.HandlerFunc(handler.ListClubs)))
	mux.Handle("GET /v1/clubs/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMyMemberships)))
	mux.Handle("GET /v1/clubs/{clubID}", RequireAuth(verifier, http.HandlerFunc(handler.GetClub)))
	mux.Handle("PUT /v1/clubs/{clubID}", RequireAuth(verifier, http.HandlerFunc(handler.UpdateClub)))
	mux.Handle("GET /v1/clubs/{clubID}/members", RequireAuth(verifier, http.HandlerFunc(handler.ListMembers)))
	mux.Handle("POST /v1/clubs/{clubID}/members", RequireAuth(verifier, http.HandlerFunc(handler.AddMember)))
	mux.Handle("GET /v1/clubs/{clubID}/members/{userID}", RequireAuth(verifier, http.HandlerFunc(handler.GetMembership)))
	mux.Handle("DELETE /v1/clubs/{clubID}/members/{userID}", RequireAuth(verifier, http.HandlerFunc(handler.RemoveMember)))
	mux.Handle("PUT /v1/clubs/{clubID}/members/{userID}/role", RequireAuth(verifier, http.HandlerFunc(handler.UpdateMemberRole)))
	mux.Handle("POST /v1/clubs/{clubID}/leave", RequireAuth(verifier, http.HandlerFunc(handler.LeaveClub)))
}

func registerAuthorizedJoinRequestRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/clubs/{clubID}/join-requests", RequireAuth(verifier, http.HandlerFunc(handler.CreateJoinRequest)))
	mux.Handle("GET /v1/clubs/{clubID}/join-requests", RequireAuth(verifier, http.HandlerFunc(handler.ListPendingJoinRequests)))
	mux.Handle("GET /v1/join-requests/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMyJoinRequests)))
	mux.Handle("POST /v1/join-requests/{requestID}/accept", RequireAuth(verifier, http.HandlerFunc(handler.AcceptJoinRequest)))
	mux.Handle("POST /v1/join-requests/{requestID}/reject", RequireAuth(verifier, http.HandlerFunc(handler.RejectJoinRequest)))
}

func registerAuthorizedOpportunityRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/clubs/{clubID}/opportunities", RequireAuth(verifier, http.HandlerFunc(handler.CreateOpportunity)))
	mux.Handle("GET /v1/opportunities", RequireAuth(verifier, http.HandlerFunc(handler.ListOpportunities)))
	mux.Handle("GET /v1/opportunities/{opportunityID}", RequireAuth(verifier, http.HandlerFunc(handler.GetOpportunity)))
	mux.Handle("POST /v1/opportunities/{opportunityID}/deactivate", RequireAuth(verifier, http.HandlerFunc(handler.DeactivateOpportunity)))
	mux.Handle("DELETE /v1/opportunities/{opportunityID}", RequireAuth(verifier, http.HandlerFunc(handler.DeleteOpportunity)))
}

func registerAuthorizedApplicationRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/opportunities/{opportunityID}/applications", RequireAuth(verifier, http.HandlerFunc(handler.Apply)))
	mux.Handle("GET /v1/opportunities/{opportunityID}/applications", RequireAuth(verifier, http.HandlerFunc(handler.ListOpportunityApplications)))
	mux.Handle("GET /v1/applications/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMyApplications)))
	mux.Handle("GET /v1/applications/represented", RequireAuth(verifier, http.HandlerFunc(handler.ListRepresentedApplications)))
	mux.Handle("POST /v1/applications/{applicationID}/withdraw", RequireAuth(verifier, http.HandlerFunc(handler.WithdrawApplication)))
	mux.Handle("POST /v1/applications/{applicationID}/decision", RequireAuth(verifier, http.HandlerFunc(handler.DecideApplication)))
}

func registerAuthorizedAffiliationRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/affiliations", RequireAuth(verifier, http.HandlerFunc(handler.RequestAffiliation)))
	mux.Handle("GET /v1/affiliations/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMyAffiliations)))
	mux.Handle("POST /v1/affiliations/{affiliationID}/accept", RequireAuth(verifier, http.HandlerFunc(handler.AcceptAffiliation)))
	mux.Handle("POST /v1/affiliations/{affiliationID}/reject", RequireAuth(verifier, http.HandlerFunc(handler.RejectAffiliation)))
	mux.Handle("POST /v1/affiliations/{affiliationID}/terminate", RequireAuth(verifier, http.HandlerFunc(handler.TerminateAffiliation)))
	mux.Handle("POST /v1/blocks", RequireAuth(verifier, http.HandlerFunc(handler.BlockAgent)))
	mux.Handle("GET /v1/blocks", RequireAuth(verifier, http.HandlerFunc(handler.ListBlocks)))
	mux.Handle("DELETE /v1/blocks/{agentID}", RequireAuth(verifier, http.HandlerFunc(handler.UnblockAgent)))
}
