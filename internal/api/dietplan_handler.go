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

// DietPlanHandler serves diet plan authoring and plan-to-client assignment.
type DietPlanHandler struct {
	dietPlanService   service.DietPlanService
	assignmentService service.AssignmentService
}

// NewDietPlanHandler creates a new DietPlanHandler.
func NewDietPlanHandler(dietPlanService service.DietPlanService, assignmentService service.AssignmentService) *DietPlanHandler {
	return &DietPlanHandler{
		dietPlanService:   dietPlanService,
		assignmentService: assignmentService,
	}
}

// --- Request/Response Structs ---

type MealRequest struct {
	ID          string `json:"id"` // optional; set to keep an existing meal's identity
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Calories    int    `json:"calories" binding:"omitempty,min=0"`
	ImageURL    string `json:"imageUrl"`
}

type DietPlanDayRequest struct {
	DayOfWeek int           `json:"dayOfWeek" binding:"min=0,max=6"` // 0 = Monday .. 6 = Sunday
	Meals     []MealRequest `json:"meals" binding:"required,min=1,max=10,dive"`
}

type DietPlanRequest struct {
	Name        string               `json:"name" binding:"required"`
	Description string               `json:"description"`
	Days        []DietPlanDayRequest `json:"days" binding:"required,len=7,dive"`
}

type AssignPlanRequest struct {
	ClientIDs  []string `json:"clientIds" binding:"required,min=1"`
	MakeActive bool     `json:"makeActive"`
}

type UnassignPlanRequest struct {
	ClientID string `json:"clientId" binding:"required"`
}

type SetActiveRequest struct {
	ClientID string `json:"clientId" binding:"required"`
	IsActive *bool  `json:"isActive" binding:"required"`
}

type MealResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Calories    int    `json:"calories,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type DietPlanDayResponse struct {
	DayOfWeek int            `json:"dayOfWeek"`
	Meals     []MealResponse `json:"meals"`
}

type DietPlanResponse struct {
	ID          string                `json:"id"`
	TrainerID   string                `json:"trainerId"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Days        []DietPlanDayResponse `json:"days"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

type AssignmentResponse struct {
	ID         string            `json:"id"`
	PlanID     string            `json:"planId"`
	ClientID   string            `json:"clientId"`
	TrainerID  string            `json:"trainerId"`
	IsActive   bool              `json:"isActive"`
	AssignedAt time.Time         `json:"assignedAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Plan       *DietPlanResponse `json:"plan,omitempty"`
}

// --- Handler Methods ---

// CreateDietPlan godoc
// @Summary Create a diet plan
// @Description Authors a 7-day plan with 1 to 10 meals per day, owned by the acting trainer.
// @Tags DietPlans
// @Accept json
// @Produce json
// @Param plan body DietPlanRequest true "Plan definition"
// @Success 201 {object} DietPlanResponse
// @Failure 400 {object} gin.H "Invalid plan shape"
// @Failure 403 {object} gin.H "Not a trainer"
// @Router /dietplans [post]
func (h *DietPlanHandler) CreateDietPlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req DietPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	days, err := mapDayRequests(req.Days)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.dietPlanService.CreateDietPlan(c.Request.Context(), actor, req.Name, req.Description, days)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mapDietPlanToResponse(plan))
}

// UpdateDietPlan godoc
// @Summary Update a diet plan
// @Tags DietPlans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param plan body DietPlanRequest true "New plan definition"
// @Success 200 {object} DietPlanResponse
// @Failure 400 {object} gin.H "Invalid plan shape"
// @Failure 403 {object} gin.H "Not the owning trainer"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /dietplans/{id} [put]
func (h *DietPlanHandler) UpdateDietPlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req DietPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	days, err := mapDayRequests(req.Days)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.dietPlanService.UpdateDietPlan(c.Request.Context(), actor, planID, req.Name, req.Description, days)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapDietPlanToResponse(plan))
}

// GetDietPlan godoc
// @Summary Get a diet plan
// @Description Readable by the owning trainer, an admin, or a client holding an assignment for it.
// @Tags DietPlans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} DietPlanResponse
// @Failure 403 {object} gin.H "No access to this plan"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /dietplans/{id} [get]
func (h *DietPlanHandler) GetDietPlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	plan, err := h.dietPlanService.GetDietPlan(c.Request.Context(), actor, planID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapDietPlanToResponse(plan))
}

// ListDietPlans godoc
// @Summary List the trainer's diet plans
// @Tags DietPlans
// @Produce json
// @Success 200 {array} DietPlanResponse
// @Router /dietplans [get]
func (h *DietPlanHandler) ListDietPlans(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	plans, err := h.dietPlanService.GetDietPlansByTrainer(c.Request.Context(), actor, actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]DietPlanResponse, 0, len(plans))
	for i := range plans {
		responses = append(responses, mapDietPlanToResponse(&plans[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// DeleteDietPlan godoc
// @Summary Delete a diet plan
// @Description Removes the plan and all of its assignments; past meal logs survive.
// @Tags DietPlans
// @Param id path string true "Plan ID"
// @Success 204 "Plan deleted"
// @Failure 403 {object} gin.H "Not the owning trainer"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /dietplans/{id} [delete]
func (h *DietPlanHandler) DeleteDietPlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.dietPlanService.DeleteDietPlan(c.Request.Context(), actor, planID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AssignPlan godoc
// @Summary Assign a plan to clients
// @Description Attaches the plan to each listed client, optionally making it their active plan.
// @Tags DietPlans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param assignment body AssignPlanRequest true "Client IDs and activation flag"
// @Success 200 {array} AssignmentResponse
// @Failure 400 {object} gin.H "A listed user is not a client"
// @Failure 403 {object} gin.H "A listed client is not managed by the trainer"
// @Failure 404 {object} gin.H "Plan or client not found"
// @Router /dietplans/{id}/assign [post]
func (h *DietPlanHandler) AssignPlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req AssignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	clientIDs := make([]primitive.ObjectID, 0, len(req.ClientIDs))
	for _, idStr := range req.ClientIDs {
		id, err := primitive.ObjectIDFromHex(idStr)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid client ID: %s", idStr))
			return
		}
		clientIDs = append(clientIDs, id)
	}

	assignments, err := h.assignmentService.AssignToClients(c.Request.Context(), actor, planID, clientIDs, req.MakeActive)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		responses = append(responses, mapAssignmentToResponse(&assignments[i], nil))
	}
	c.JSON(http.StatusOK, responses)
}

// UnassignPlan godoc
// @Summary Remove a plan assignment
// @Tags DietPlans
// @Accept json
// @Param id path string true "Plan ID"
// @Param unassignment body UnassignPlanRequest true "Client to unassign"
// @Success 204 "Assignment removed"
// @Failure 404 {object} gin.H "Assignment not found"
// @Router /dietplans/{id}/unassign [post]
func (h *DietPlanHandler) UnassignPlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req UnassignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid clientId")
		return
	}

	if err := h.assignmentService.Unassign(c.Request.Context(), actor, planID, clientID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetAssignmentActive godoc
// @Summary Activate or deactivate an assignment
// @Description Activation deactivates every other assignment of the client first.
// @Tags DietPlans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param activation body SetActiveRequest true "Client and activation flag"
// @Success 200 {object} AssignmentResponse
// @Failure 404 {object} gin.H "Assignment not found"
// @Router /dietplans/{id}/active [put]
func (h *DietPlanHandler) SetAssignmentActive(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid clientId")
		return
	}

	assignment, err := h.assignmentService.SetActive(c.Request.Context(), actor, planID, clientID, *req.IsActive)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapAssignmentToResponse(assignment, nil))
}

// ListClientAssignments godoc
// @Summary List a client's assignments
// @Description All assignments of the client, active and inactive, with plan detail.
// @Tags DietPlans
// @Produce json
// @Param clientId path string true "Client ID"
// @Success 200 {array} AssignmentResponse
// @Failure 403 {object} gin.H "No access to this client's data"
// @Router /clients/{clientId}/assignments [get]
func (h *DietPlanHandler) ListClientAssignments(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}

	details, err := h.assignmentService.ListAssignmentsForClient(c.Request.Context(), actor, clientID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]AssignmentResponse, 0, len(details))
	for i := range details {
		responses = append(responses, mapAssignmentToResponse(&details[i].DietPlanAssignment, details[i].Plan))
	}
	c.JSON(http.StatusOK, responses)
}

// GetActiveAssignment godoc
// @Summary Get a client's active assignment
// @Tags DietPlans
// @Produce json
// @Param clientId path string true "Client ID"
// @Success 200 {object} AssignmentResponse
// @Failure 403 {object} gin.H "No access to this client's data"
// @Failure 404 {object} gin.H "No active assignment"
// @Router /clients/{clientId}/assignments/active [get]
func (h *DietPlanHandler) GetActiveAssignment(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}

	detail, err := h.assignmentService.GetActiveAssignment(c.Request.Context(), actor, clientID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapAssignmentToResponse(&detail.DietPlanAssignment, detail.Plan))
}

// --- Mapping helpers ---

func mapDayRequests(days []DietPlanDayRequest) ([]service.DietPlanDayInput, error) {
	inputs := make([]service.DietPlanDayInput, 0, len(days))
	for _, day := range days {
		meals := make([]service.MealInput, 0, len(day.Meals))
		for _, m := range day.Meals {
			input := service.MealInput{
				Name:        m.Name,
				Description: m.Description,
				Calories:    m.Calories,
				ImageURL:    m.ImageURL,
			}
			if m.ID != "" {
				id, err := primitive.ObjectIDFromHex(m.ID)
				if err != nil {
					return nil, fmt.Errorf("invalid meal ID: %s", m.ID)
				}
				input.ID = id
			}
			meals = append(meals, input)
		}
		inputs = append(inputs, service.DietPlanDayInput{DayOfWeek: day.DayOfWeek, Meals: meals})
	}
	return inputs, nil
}

func mapDietPlanToResponse(plan *domain.DietPlan) DietPlanResponse {
	if plan == nil {
		return DietPlanResponse{}
	}

	days := make([]DietPlanDayResponse, 0, len(plan.Days))
	for _, day := range plan.Days {
		meals := make([]MealResponse, 0, len(day.Meals))
		for _, m := range day.Meals {
			meals = append(meals, MealResponse{
				ID:          m.ID.Hex(),
				Name:        m.Name,
				Description: m.Description,
				Calories:    m.Calories,
				ImageURL:    m.ImageURL,
			})
		}
		days = append(days, DietPlanDayResponse{DayOfWeek: day.DayOfWeek, Meals: meals})
	}

	return DietPlanResponse{
		ID:          plan.ID.Hex(),
		TrainerID:   plan.TrainerID.Hex(),
		Name:        plan.Name,
		Description: plan.Description,
		Days:        days,
		CreatedAt:   plan.CreatedAt,
		UpdatedAt:   plan.UpdatedAt,
	}
}

func mapAssignmentToResponse(assignment *domain.DietPlanAssignment, plan *domain.DietPlan) AssignmentResponse {
	if assignment == nil {
		return AssignmentResponse{}
	}

	resp := AssignmentResponse{
		ID:         assignment.ID.Hex(),
		PlanID:     assignment.PlanID.Hex(),
		ClientID:   assignment.ClientID.Hex(),
		TrainerID:  assignment.TrainerID.Hex(),
		IsActive:   assignment.IsActive,
		AssignedAt: assignment.AssignedAt,
		UpdatedAt:  assignment.UpdatedAt,
	}
	if plan != nil {
		planResp := mapDietPlanToResponse(plan)
		resp.Plan = &planResp
	}
	return resp
}
