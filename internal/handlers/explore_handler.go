package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/feedback-loop/backend/internal/explore"
	"github.com/anonto42/feedback-loop/backend/internal/feed"
	"github.com/anonto42/feedback-loop/backend/internal/middleware"
	"github.com/anonto42/feedback-loop/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// ExploreHandler serves the explore page: the session's filter state and the feed it selects
type ExploreHandler struct {
	feed *feed.Service
}

// NewExploreHandler creates a new ExploreHandler
func NewExploreHandler(feedService *feed.Service) *ExploreHandler {
	return &ExploreHandler{feed: feedService}
}

// RegisterExploreRoutes registers explore routes
func (h *ExploreHandler) RegisterExploreRoutes(g *echo.Group) {
	g.GET("/explore", h.GetExplore)
	g.PUT("/explore/sort", h.SetSort)
	g.PUT("/explore/tags", h.SetTags)
	g.POST("/explore/tags/toggle", h.ToggleTag)
	g.PUT("/explore/search", h.SetSearch)
	g.POST("/explore/more", h.LoadMore)
	g.GET("/explore/tags", h.GetTagList)
}

func state(c echo.Context) (*explore.State, error) {
	s := middleware.Session(c)
	if s == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "You need to be logged in")
	}
	return s.Explore(), nil
}

// respond returns the filter state with the feed page it selects
func (h *ExploreHandler) respond(c echo.Context, st *explore.State) error {
	view := st.View()
	page, err := h.feed.Feed(c.Request().Context(), st.Filter(), view.Limit, 0)
	if err != nil {
		return httpError(err)
	}
	return success(c, http.StatusOK, echo.Map{"filters": view, "feed": page})
}

func (h *ExploreHandler) GetExplore(c echo.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}
	return h.respond(c, st)
}

func (h *ExploreHandler) SetSort(c echo.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}
	var req struct {
		Sort string `json:"sort" validate:"required,oneof=newest explore"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := st.SetSort(c.Request().Context(), models.SortMode(req.Sort)); err != nil {
		return httpError(err)
	}
	return h.respond(c, st)
}

func (h *ExploreHandler) SetTags(c echo.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}
	var req struct {
		Tags []string `json:"tags"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	st.SetTags(c.Request().Context(), req.Tags)
	return h.respond(c, st)
}

// ToggleTag adds the tag to the selection, or removes it when already selected
func (h *ExploreHandler) ToggleTag(c echo.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}
	var req struct {
		Tag string `json:"tag" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	st.ToggleTag(c.Request().Context(), req.Tag)
	return h.respond(c, st)
}

// SetSearch sets the search text. Blank text clears the search.
func (h *ExploreHandler) SetSearch(c echo.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}
	var req struct {
		Query string `json:"q" validate:"max=100"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Query == "" {
		st.ClearSearch()
	} else {
		st.SetSearch(req.Query)
	}
	return h.respond(c, st)
}

// LoadMore grows the feed window by one page
func (h *ExploreHandler) LoadMore(c echo.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}
	st.LoadMore()
	return h.respond(c, st)
}

// GetTagList returns the tag catalog split into selected and unselected tags
func (h *ExploreHandler) GetTagList(c echo.Context) error {
	st, err := state(c)
	if err != nil {
		return err
	}
	tags, err := h.feed.Tags(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	expanded, _ := strconv.ParseBool(c.QueryParam("expanded"))
	return success(c, http.StatusOK, explore.PartitionTags(tags, st.View().Tags, c.QueryParam("search"), expanded))
}
