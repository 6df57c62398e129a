package handlers

import (
	"net/http"

	"github.com/careercompass/auth-service/internal/domain"
	appctx "github.com/careercompass/auth-service/internal/pkg/context"
	"github.com/careercompass/auth-service/internal/transport/http/dto"
	"github.com/careercompass/auth-service/internal/transport/http/response"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler { return &UserHandler{} }

// Me handles GET /user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := appctx.IdentityFrom(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrUnauthenticated())
		return
	}
	response.WriteData(w, http.StatusOK, dto.NewUserResponse(id.User))
}
