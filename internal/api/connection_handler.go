package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConnectionHandler serves the trainer-client pairing lifecycle:
// invitations, the active connection, and connection history.
type ConnectionHandler struct {
	connectionService service.ConnectionService
}

// NewConnectionHandler creates a new ConnectionHandler.
func NewConnectionHandler(connectionService service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

// --- Request/Response Structs ---

type CreateInvitationRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message"`
}

type ResolveInvitationRequest struct {
	Status domain.InvitationStatus `json:"status" binding:"required,oneof=accepted rejected"`
}

type RemoveConnectionRequest struct {
	TrainerID string `json:"trainerId" binding:"required"`
	ClientID  string `json:"clientId" binding:"required"`
}

type InvitationResponse struct {
	ID          string                  `json:"id"`
	ClientID    string                  `json:"clientId"`
	TrainerID   string                  `json:"trainerId"`
	InitiatorID string                  `json:"initiatorId"`
	Status      domain.InvitationStatus `json:"status"`
	Message     string                  `json:"message,omitempty"`
	CreatedAt   time.Time               `json:"createdAt"`
	ResolvedAt  *time.Time              `json:"resolvedAt,omitempty"`
}

type HistoryResponse struct {
	ID        string    `json:"id"`
	TrainerID string    `json:"trainerId"`
	ClientID  string    `json:"clientId"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// --- Handler Methods ---

// CreateInvitation godoc
// @Summary Invite a counterpart
// @Description A client invites a trainer by email, or a trainer invites a client.
// @Tags Connections
// @Accept json
// @Produce json
// @Param invitation body CreateInvitationRequest true "Counterpart email and optional message"
// @Success 201 {object} InvitationResponse
// @Failure 400 {object} gin.H "Invalid input or role mismatch"
// @Failure 404 {object} gin.H "No user with that email"
// @Failure 409 {object} gin.H "Pending invitation already exists"
// @Router /invitations [post]
func (h *ConnectionHandler) CreateInvitation(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	inv, err := h.connectionService.CreateInvitation(c.Request.Context(), actor, req.Email, req.Message)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mapInvitationToResponse(inv))
}

// ResolveInvitation godoc
// @Summary Accept or reject an invitation
// @Description Transitions a pending invitation to accepted or rejected, exactly once.
// @Tags Connections
// @Accept json
// @Produce json
// @Param id path string true "Invitation ID"
// @Param resolution body ResolveInvitationRequest true "accepted or rejected"
// @Success 200 {object} InvitationResponse
// @Failure 400 {object} gin.H "Invalid input or client already has a trainer"
// @Failure 403 {object} gin.H "Not a party to the invitation"
// @Failure 404 {object} gin.H "Invitation not found"
// @Failure 409 {object} gin.H "Invitation already resolved"
// @Router /invitations/{id} [put]
func (h *ConnectionHandler) ResolveInvitation(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	invitationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req ResolveInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	inv, err := h.connectionService.ResolveInvitation(c.Request.Context(), actor, invitationID, req.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapInvitationToResponse(inv))
}

// ListInvitations godoc
// @Summary List own pending invitations
// @Tags Connections
// @Produce json
// @Success 200 {array} InvitationResponse
// @Router /invitations [get]
func (h *ConnectionHandler) ListInvitations(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	invitations, err := h.connectionService.ListInvitations(c.Request.Context(), actor, actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]InvitationResponse, 0, len(invitations))
	for i := range invitations {
		responses = append(responses, mapInvitationToResponse(&invitations[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// RemoveConnection godoc
// @Summary Remove the active trainer-client connection
// @Description Tears down the connection and appends the closed interval to history.
// @Tags Connections
// @Accept json
// @Produce json
// @Param connection body RemoveConnectionRequest true "Trainer and client IDs of the connection"
// @Success 204 "Connection removed"
// @Failure 400 {object} gin.H "Client is not connected to this trainer"
// @Failure 403 {object} gin.H "Not a party to the connection"
// @Router /connections [delete]
func (h *ConnectionHandler) RemoveConnection(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req RemoveConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainerId")
		return
	}
	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid clientId")
		return
	}

	if err := h.connectionService.RemoveConnection(c.Request.Context(), actor, trainerID, clientID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetHistory godoc
// @Summary List own closed connections
// @Description Returns past trainer-client connections, newest ended first. Use ?as=trainer to read the trainer side.
// @Tags Connections
// @Produce json
// @Param as query string false "Read side: trainer or client (default client)"
// @Success 200 {array} HistoryResponse
// @Router /connections/history [get]
func (h *ConnectionHandler) GetHistory(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	asTrainer := c.Query("as") == "trainer"

	records, err := h.connectionService.GetHistory(c.Request.Context(), actor, actor.ID, asTrainer)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]HistoryResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, HistoryResponse{
			ID:        r.ID.Hex(),
			TrainerID: r.TrainerID.Hex(),
			ClientID:  r.ClientID.Hex(),
			StartedAt: r.StartedAt,
			EndedAt:   r.EndedAt,
		})
	}
	c.JSON(http.StatusOK, responses)
}

// ListClients godoc
// @Summary List the trainer's connected clients
// @Tags Connections
// @Produce json
// @Success 200 {array} UserResponse
// @Failure 403 {object} gin.H "Not a trainer"
// @Router /trainer/clients [get]
func (h *ConnectionHandler) ListClients(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	clients, err := h.connectionService.ListClients(c.Request.Context(), actor, actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]UserResponse, 0, len(clients))
	for i := range clients {
		responses = append(responses, MapUserToResponse(&clients[i]))
	}
	c.JSON(http.StatusOK, responses)
}

func mapInvitationToResponse(inv *domain.Invitation) InvitationResponse {
	if inv == nil {
		return InvitationResponse{}
	}
	return InvitationResponse{
		ID:          inv.ID.Hex(),
		ClientID:    inv.ClientID.Hex(),
		TrainerID:   inv.TrainerID.Hex(),
		InitiatorID: inv.InitiatorID.Hex(),
		Status:      inv.Status,
		Message:     inv.Message,
		CreatedAt:   inv.CreatedAt,
		ResolvedAt:  inv.ResolvedAt,
	}
}
