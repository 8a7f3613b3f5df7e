package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core/content"
	"github.com/koinonia-app/koinonia/core/user"
)

const coverFormField = "cover"

// contentApi serves events, sermons & posts. Any staff can read, the media team & admins can write.
type contentApi struct {
	svc      content.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerContentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc content.Service,
	userSvc user.Service,
	validate *validator.Validate,
) {
	api := contentApi{svc: svc, userSvc: userSvc, validate: validate}

	eg := g.Group("/events", jwt, staffMiddleware)
	eg.GET("", api.queryEvents)
	eg.POST("", api.createEvent, mediaMiddleware)
	eg.DELETE("", api.destroyEvents, mediaMiddleware)
	eg.GET("/upcoming", api.upcomingEvents)
	edg := eg.Group("/:id", api.eventMiddleware)
	edg.GET("", api.retrieveEvent)
	edg.PUT("", api.updateEvent, mediaMiddleware)
	edg.DELETE("", api.destroyEvent, mediaMiddleware)

	sg := g.Group("/sermons", jwt, staffMiddleware)
	sg.GET("", api.querySermons)
	sg.POST("", api.createSermon, mediaMiddleware)
	sg.DELETE("", api.destroySermons, mediaMiddleware)
	sdg := sg.Group("/:id", api.sermonMiddleware)
	sdg.GET("", api.retrieveSermon)
	sdg.PUT("", api.updateSermon, mediaMiddleware)
	sdg.DELETE("", api.destroySermon, mediaMiddleware)

	pg := g.Group("/posts", jwt, staffMiddleware)
	pg.GET("", api.queryPosts)
	pg.POST("", api.createPost, mediaMiddleware)
	pg.DELETE("", api.destroyPosts, mediaMiddleware)
	pg.GET("/slug/:slug", api.retrievePostBySlug)
	pdg := pg.Group("/:id", api.postMiddleware)
	pdg.GET("", api.retrievePost)
	pdg.PUT("", api.updatePost, mediaMiddleware)
	pdg.DELETE("", api.destroyPost, mediaMiddleware)
	pdg.POST("/publish", api.publishPost, mediaMiddleware)
	pdg.POST("/unpublish", api.unpublishPost, mediaMiddleware)
	pdg.PUT("/cover", api.setCover, mediaMiddleware)
	pdg.GET("/cover", api.getCover)
}

// Events

func (api *contentApi) eventMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		e, err := api.svc.GetEvent(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding event by ID")
		}
		ctx.Set(objectKey, e)
		return next(ctx)
	}
}

func (api *contentApi) createEvent(ctx echo.Context) error {
	var data content.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	e, err := api.svc.CreateEvent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *contentApi) queryEvents(ctx echo.Context) error {
	q := newQueryParams(ctx)
	filter := &content.EventFilter{
		Search:    q.String("search"),
		Category:  q.String("category"),
		Period:    q.DateRange("from", "to"),
		Published: q.Bool("published"),
	}
	page := q.Pagination()
	if err := q.Err(); err != nil {
		return err
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	events, total, err := api.svc.QueryEvents(ctx.Request().Context(), filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []content.Event{}
	}
	setTotalCount(ctx, total)
	return ctx.JSON(http.StatusOK, events)
}

func (api *contentApi) upcomingEvents(ctx echo.Context) error {
	q := newQueryParams(ctx)
	limit := q.Int("limit", content.DefaultUpcomingLimit)
	if err := q.Err(); err != nil {
		return err
	}
	events, err := api.svc.UpcomingEvents(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "querying upcoming events")
	}
	if events == nil {
		events = []content.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *contentApi) retrieveEvent(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ctx.Get(objectKey))
}

func (api *contentApi) updateEvent(ctx echo.Context) error {
	e, ok := ctx.Get(objectKey).(content.Event)
	if !ok {
		return errors.New("event object not found in echo.Context")
	}
	data := content.NewEventFrom(e)
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	e, err := api.svc.UpdateEvent(ctx.Request().Context(), e, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *contentApi) destroyEvent(ctx echo.Context) error {
	if err := api.svc.DeleteEvents(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) destroyEvents(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.DeleteEvents(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting events")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Sermons

func (api *contentApi) sermonMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		s, err := api.svc.GetSermon(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding sermon by ID")
		}
		ctx.Set(objectKey, s)
		return next(ctx)
	}
}

func (api *contentApi) createSermon(ctx echo.Context) error {
	var data content.NewSermon
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSermon")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	s, err := api.svc.CreateSermon(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating sermon")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *contentApi) querySermons(ctx echo.Context) error {
	q := newQueryParams(ctx)
	filter := &content.SermonFilter{
		Search:   q.String("search"),
		Preacher: q.String("preacher"),
		Series:   q.String("series"),
		Tag:      q.String("tag"),
		Period:   q.DateRange("from", "to"),
	}
	page := q.Pagination()
	if err := q.Err(); err != nil {
		return err
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	sermons, total, err := api.svc.QuerySermons(ctx.Request().Context(), filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "querying sermons")
	}
	if sermons == nil {
		sermons = []content.Sermon{}
	}
	setTotalCount(ctx, total)
	return ctx.JSON(http.StatusOK, sermons)
}

func (api *contentApi) retrieveSermon(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ctx.Get(objectKey))
}

func (api *contentApi) updateSermon(ctx echo.Context) error {
	s, ok := ctx.Get(objectKey).(content.Sermon)
	if !ok {
		return errors.New("sermon object not found in echo.Context")
	}
	data := content.NewSermonFrom(s)
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSermon")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	s, err := api.svc.UpdateSermon(ctx.Request().Context(), s, data)
	if err != nil {
		return errors.Wrap(err, "updating sermon")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *contentApi) destroySermon(ctx echo.Context) error {
	if err := api.svc.DeleteSermons(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting sermon")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) destroySermons(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.DeleteSermons(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting sermons")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Posts

func (api *contentApi) postMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		p, err := api.svc.GetPost(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding post by ID")
		}
		ctx.Set(objectKey, p)
		return next(ctx)
	}
}

func contextPost(ctx echo.Context) (content.Post, error) {
	p, ok := ctx.Get(objectKey).(content.Post)
	if !ok {
		return content.Post{}, errors.New("post object not found in echo.Context")
	}
	return p, nil
}

func (api *contentApi) createPost(ctx echo.Context) error {
	var data content.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if data.Author == "" {
		data.Author = ctxUsr.Name
	}
	p, err := api.svc.CreatePost(ctx.Request().Context(), data, ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *contentApi) queryPosts(ctx echo.Context) error {
	q := newQueryParams(ctx)
	filter := &content.PostFilter{
		Search: q.String("search"),
		Status: q.String("status"),
	}
	page := q.Pagination()
	if err := q.Err(); err != nil {
		return err
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	posts, total, err := api.svc.QueryPosts(ctx.Request().Context(), filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	if posts == nil {
		posts = []content.Post{}
	}
	setTotalCount(ctx, total)
	return ctx.JSON(http.StatusOK, posts)
}

func (api *contentApi) retrievePost(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ctx.Get(objectKey))
}

func (api *contentApi) retrievePostBySlug(ctx echo.Context) error {
	p, err := api.svc.GetPostBySlug(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "finding post by slug")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *contentApi) updatePost(ctx echo.Context) error {
	p, err := contextPost(ctx)
	if err != nil {
		return err
	}
	data := content.NewPostFrom(p)
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	p, err = api.svc.UpdatePost(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "updating post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *contentApi) publishPost(ctx echo.Context) error {
	p, err := contextPost(ctx)
	if err != nil {
		return err
	}
	if p, err = api.svc.PublishPost(ctx.Request().Context(), p); err != nil {
		return errors.Wrap(err, "publishing post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *contentApi) unpublishPost(ctx echo.Context) error {
	p, err := contextPost(ctx)
	if err != nil {
		return err
	}
	if p, err = api.svc.UnpublishPost(ctx.Request().Context(), p); err != nil {
		return errors.Wrap(err, "unpublishing post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *contentApi) destroyPost(ctx echo.Context) error {
	if err := api.svc.DeletePosts(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) destroyPosts(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.DeletePosts(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting posts")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) setCover(ctx echo.Context) error {
	p, err := contextPost(ctx)
	if err != nil {
		return err
	}
	r, closeFn, err := uploadedFile(ctx, coverFormField)
	if err != nil {
		return err
	}
	defer closeFn()

	if p, err = api.svc.SetCover(ctx.Request().Context(), p, r); err != nil {
		return errors.Wrap(err, "setting cover")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *contentApi) getCover(ctx echo.Context) error {
	p, err := contextPost(ctx)
	if err != nil {
		return err
	}
	info, rc, err := api.svc.GetCover(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "getting cover")
	}
	return streamBlob(ctx, info, rc)
}
