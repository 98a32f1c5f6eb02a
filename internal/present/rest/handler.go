package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/oakmere/adviserdesk"
	"github.com/oakmere/adviserdesk/internal/domain"
	"github.com/oakmere/adviserdesk/internal/present/rest/presenter"
	"github.com/oakmere/adviserdesk/internal/service"
	"github.com/oakmere/adviserdesk/internal/usecase"
)

type Handler struct {
	config domain.Config
	health *usecase.HealthUsecase
	vuln   *usecase.VulnerabilityUsecase
	person *usecase.PersonUsecase
	signal *service.SignalService
}

func NewHandler(
	config domain.Config,
	health *usecase.HealthUsecase,
	vuln *usecase.VulnerabilityUsecase,
	person *usecase.PersonUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		config: config,
		health: health,
		vuln:   vuln,
		person: person,
		signal: signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health-facts", h.handleListHealthFacts)
	e.POST("/api/v1/health-facts", h.handleCreateHealthFact)
	e.PATCH("/api/v1/health-facts/:id", h.handleUpdateHealthFact)
	e.DELETE("/api/v1/health-facts/:id", h.handleDeleteHealthFact)

	e.GET("/api/v1/vulnerability-facts", h.handleListVulnerabilityFacts)
	e.POST("/api/v1/vulnerability-facts", h.handleCreateVulnerabilityFact)
	e.PATCH("/api/v1/vulnerability-facts/:id", h.handleUpdateVulnerabilityFact)
	e.DELETE("/api/v1/vulnerability-facts/:id", h.handleDeleteVulnerabilityFact)

	e.POST("/api/v1/product-owners", h.handleCreateProductOwner)
	e.GET("/api/v1/product-owners", h.handleListProductOwners)
	e.GET("/api/v1/product-owners/:id", h.handleGetProductOwner)
	e.DELETE("/api/v1/product-owners/:id", h.handleDeleteProductOwner)
	e.GET("/api/v1/product-owners/:id/condition-summary", h.handleOwnerConditionSummary)
	e.POST("/api/v1/product-owners/:id/relations/:relationId", h.handleLinkRelation)

	e.POST("/api/v1/relations", h.handleCreateRelation)
	e.GET("/api/v1/relations/:id", h.handleGetRelation)
	e.DELETE("/api/v1/relations/:id", h.handleDeleteRelation)
	e.GET("/api/v1/relations/:id/condition-summary", h.handleRelationConditionSummary)

	e.GET("/realtime", h.handleRealtime)
}

// respondError maps the domain error taxonomy onto the wire envelope.
func respondError(c echo.Context, err error) error {
	var validation domain.ValidationError
	if errors.As(err, &validation) {
		return presenter.ValidationFailed(c, validation, validation.Fields)
	}
	var ownerNotFound domain.OwnerNotFoundError
	if errors.As(err, &ownerNotFound) {
		return presenter.NotFound(c, presenter.CodeOwnerNotFound, ownerNotFound.Error())
	}
	var notFound domain.NotFoundError
	if errors.As(err, &notFound) {
		return presenter.NotFound(c, presenter.CodeNotFound, notFound.Error())
	}
	if errors.Is(err, domain.ErrConstraintViolation) {
		return presenter.ConstraintViolation(c, err)
	}
	return presenter.InternalError(c, err)
}

func parseFactFilter(c echo.Context) (domain.FactFilter, error) {
	ownerParam := c.QueryParam("owner")
	group := c.QueryParam("group")

	var filter domain.FactFilter
	if ownerParam != "" {
		ref, err := adviserdesk.ParseOwnerRef(ownerParam)
		if err != nil {
			return domain.FactFilter{}, err
		}
		filter.Owner = &ref
	}
	filter.Group = group

	if err := filter.Validate(); err != nil {
		return domain.FactFilter{}, fmt.Errorf("exactly one of owner or group is required")
	}
	return filter, nil
}

func (h *Handler) handleListHealthFacts(c echo.Context) error {
	ctx := c.Request().Context()

	filter, err := parseFactFilter(c)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	facts, err := h.health.List(ctx, filter)
	if err != nil {
		return respondError(c, err)
	}
	if facts == nil {
		facts = []adviserdesk.HealthFact{}
	}
	return presenter.OK(c, facts)
}

func (h *Handler) handleCreateHealthFact(c echo.Context) error {
	ctx := c.Request().Context()

	var req adviserdesk.CreateHealthFactRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	fact, err := h.health.Create(ctx, req.Owner, req.HealthFactDraft)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.Created(c, fact)
}

func (h *Handler) handleUpdateHealthFact(c echo.Context) error {
	ctx := c.Request().Context()

	var patch adviserdesk.HealthFactPatch
	if err := c.Bind(&patch); err != nil {
		return presenter.BadRequest(c, err)
	}

	fact, err := h.health.Update(ctx, c.Param("id"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, fact)
}

func (h *Handler) handleDeleteHealthFact(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.health.Delete(ctx, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleListVulnerabilityFacts(c echo.Context) error {
	ctx := c.Request().Context()

	filter, err := parseFactFilter(c)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	facts, err := h.vuln.List(ctx, filter)
	if err != nil {
		return respondError(c, err)
	}
	if facts == nil {
		facts = []adviserdesk.VulnerabilityFact{}
	}
	return presenter.OK(c, facts)
}

func (h *Handler) handleCreateVulnerabilityFact(c echo.Context) error {
	ctx := c.Request().Context()

	var req adviserdesk.CreateVulnerabilityFactRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	fact, err := h.vuln.Create(ctx, req.Owner, req.VulnerabilityFactDraft)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.Created(c, fact)
}

func (h *Handler) handleUpdateVulnerabilityFact(c echo.Context) error {
	ctx := c.Request().Context()

	var patch adviserdesk.VulnerabilityFactPatch
	if err := c.Bind(&patch); err != nil {
		return presenter.BadRequest(c, err)
	}

	fact, err := h.vuln.Update(ctx, c.Param("id"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, fact)
}

func (h *Handler) handleDeleteVulnerabilityFact(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.vuln.Delete(ctx, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleCreateProductOwner(c echo.Context) error {
	ctx := c.Request().Context()

	var req adviserdesk.CreatePersonRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	person, err := h.person.CreatePerson(ctx, adviserdesk.OwnerKindPrimary, req)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.Created(c, person)
}

func (h *Handler) handleListProductOwners(c echo.Context) error {
	ctx := c.Request().Context()

	persons, err := h.person.ListProductOwners(ctx, c.QueryParam("group"))
	if err != nil {
		return respondError(c, err)
	}
	if persons == nil {
		persons = []adviserdesk.Person{}
	}
	return presenter.OK(c, persons)
}

func (h *Handler) handleGetProductOwner(c echo.Context) error {
	ctx := c.Request().Context()

	person, err := h.person.GetPerson(ctx, adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindPrimary, ID: c.Param("id")})
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, person)
}

func (h *Handler) handleDeleteProductOwner(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.person.DeletePerson(ctx, adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindPrimary, ID: c.Param("id")})
	if err != nil {
		return respondError(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleOwnerConditionSummary(c echo.Context) error {
	ctx := c.Request().Context()

	summary, err := h.person.ConditionSummary(ctx, adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindPrimary, ID: c.Param("id")})
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, summary)
}

func (h *Handler) handleLinkRelation(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.person.Link(ctx, c.Param("id"), c.Param("relationId"))
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleCreateRelation(c echo.Context) error {
	ctx := c.Request().Context()

	var req adviserdesk.CreatePersonRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	person, err := h.person.CreatePerson(ctx, adviserdesk.OwnerKindAssociated, req)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.Created(c, person)
}

func (h *Handler) handleGetRelation(c echo.Context) error {
	ctx := c.Request().Context()

	person, err := h.person.GetPerson(ctx, adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindAssociated, ID: c.Param("id")})
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, person)
}

func (h *Handler) handleDeleteRelation(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.person.DeletePerson(ctx, adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindAssociated, ID: c.Param("id")})
	if err != nil {
		return respondError(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleRelationConditionSummary(c echo.Context) error {
	ctx := c.Request().Context()

	summary, err := h.person.ConditionSummary(ctx, adviserdesk.OwnerRef{Kind: adviserdesk.OwnerKindAssociated, ID: c.Param("id")})
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, summary)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type   string   `json:"type"`
	Groups []string `json:"groups"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	input := make(chan []string)
	output := make(chan adviserdesk.Event)

	go h.signal.Realtime(ctx, input, output)

	// Buffered so the reader can always report its exit, even after the
	// write side has already returned.
	quit := make(chan struct{}, 1)

	// The reader owns input: it is closed only after the read loop is done
	// sending on it.
	go func() {
		defer close(input)
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "listen":
				channels := make([]string, len(req.Groups))
				for i, group := range req.Groups {
					channels[i] = usecase.GroupChannel(group)
				}
				select {
				case input <- channels:
				case <-ctx.Done():
					return
				}
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.Groups),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case items := <-output:
			err := ws.WriteJSON(items)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
