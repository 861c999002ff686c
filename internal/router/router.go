package router

import (
	"net/http"

	"github.com/senyabanana/procurement-portal/internal/auth"
	"github.com/senyabanana/procurement-portal/internal/handlers"
)

// InitRoutes собирает маршруты портала. Все запросы проходят через
// auth-middleware: токен разрешается в принципала, без токена вызов анонимный.
func InitRoutes(tokens *auth.TokenManager, authHandler *handlers.AuthHandler, tenderHandler *handlers.TenderHandler, bidHandler *handlers.BidHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ping", handlers.PingHandler)

	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/login", authHandler.Login)

	mux.HandleFunc("/api/tenders", tenderHandler.GetTenders)
	mux.HandleFunc("/api/tenders/new", tenderHandler.CreateTender)
	mux.HandleFunc("/api/tenders/my", tenderHandler.GetUserTenders)
	mux.HandleFunc("GET /api/tenders/{tenderId}", tenderHandler.GetTender)
	mux.HandleFunc("/api/tenders/{tenderId}/edit", tenderHandler.EditTender)
	mux.HandleFunc("POST /api/tenders/{tenderId}/publish", tenderHandler.PublishTender)
	mux.HandleFunc("POST /api/tenders/{tenderId}/close", tenderHandler.CloseTender)
	mux.HandleFunc("POST /api/tenders/{tenderId}/award/{bidId}", tenderHandler.AwardTender)

	mux.HandleFunc("/api/bids/new", bidHandler.CreateBid)
	mux.HandleFunc("/api/bids/my", bidHandler.GetUserBids)
	mux.HandleFunc("/api/bids/{tenderId}/list", bidHandler.GetTenderBids)

	return auth.Middleware(tokens, mux)
}
