package echoapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/member"
)

const (
	objectKey      = "object"
	photoFormField = "photo"
)

type memberApi struct {
	conf     *core.Config
	svc      member.Service
	validate *validator.Validate
}

func registerMemberAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config, svc member.Service, validate *validator.Validate) {
	api := memberApi{conf: conf, svc: svc, validate: validate}

	mg := g.Group("/members", jwt, secretaryMiddleware)
	mg.POST("/validate/:step", api.validateStep)
	mg.POST("", api.create)
	mg.GET("", api.query)
	mg.DELETE("", api.destroyMultiple)
	mg.GET("/birthdays", api.birthdays)

	dg := mg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.PUT("/photo", api.setPhoto)
	dg.GET("/photo", api.getPhoto)
}

func (api *memberApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		m, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding member by ID")
		}
		ctx.Set(objectKey, m)
		return next(ctx)
	}
}

func contextMember(ctx echo.Context) (member.Member, error) {
	m, ok := ctx.Get(objectKey).(member.Member)
	if !ok {
		return member.Member{}, errors.New("member object not found in echo.Context")
	}
	return m, nil
}

// validateStep checks one onboarding step. Earlier steps may be sent along for the rules spanning steps.
func (api *memberApi) validateStep(ctx echo.Context) error {
	step, err := member.ParseStep(ctx.Param("step"))
	if err != nil {
		return errHttpNotFound
	}

	if step == member.StepPhoto {
		r, closeFn, err := uploadedFile(ctx, photoFormField)
		if err != nil {
			return err
		}
		defer closeFn()
		if _, _, err := core.ReadImage(r, photoFormField, api.conf.Uploads.MaxImageBytes, api.conf.Uploads.ImageTypes); err != nil {
			return err
		}
		return ctx.NoContent(http.StatusNoContent)
	}

	var data member.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err := data.ValidateStep(ctx.Request().Context(), step, api.validate, api.svc); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *memberApi) create(ctx echo.Context) error {
	var data member.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	c := ctx.Request().Context()
	if err := data.Validate(c, api.validate, api.svc); err != nil {
		return err
	}

	m, err := api.svc.Create(c, data)
	if err != nil {
		return errors.Wrap(err, "creating member")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *memberApi) query(ctx echo.Context) error {
	q := newQueryParams(ctx)
	filter := &member.QueryFilter{
		Search:     q.String("search"),
		Gender:     q.String("gender"),
		Status:     q.String("status"),
		Department: q.String("department"),
		Baptized:   q.Bool("baptized"),
		Joined:     q.DateRange("joined_from", "joined_to"),
	}
	page := q.Pagination()
	if err := q.Err(); err != nil {
		return err
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	members, total, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	if members == nil {
		members = []member.Member{}
	}
	setTotalCount(ctx, total)
	return ctx.JSON(http.StatusOK, members)
}

// birthdays lists the members born in `?month=` (number or name), the current month by default.
func (api *memberApi) birthdays(ctx echo.Context) error {
	month, err := parseMonth(ctx.QueryParam("month"))
	if err != nil {
		return err
	}
	members, err := api.svc.Birthdays(ctx.Request().Context(), month)
	if err != nil {
		return errors.Wrap(err, "querying birthdays")
	}
	if members == nil {
		members = []member.Member{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func parseMonth(s string) (time.Month, error) {
	s = core.CleanString(s, true /* lower */)
	if s == "" {
		return core.Today().Month(), nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Month(n), nil // range checked by the service
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if s == name || s == name[:3] {
			return m, nil
		}
	}
	return 0, core.NewFieldError("month", "enter a month number or name")
}

func (api *memberApi) retrieve(ctx echo.Context) error {
	m, err := contextMember(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, m)
}

// update is partial: fields missing from the body keep their current values.
func (api *memberApi) update(ctx echo.Context) error {
	m, err := contextMember(ctx)
	if err != nil {
		return err
	}

	data := member.NewMemberFrom(m)
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	c := ctx.Request().Context()
	if err := data.Validate(c, api.validate, api.svc, m); err != nil {
		return err
	}

	m, err = api.svc.Update(c, m, data)
	if err != nil {
		return errors.Wrap(err, "updating member")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *memberApi) destroy(ctx echo.Context) error {
	m, err := contextMember(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), m.ID); err != nil {
		return errors.Wrap(err, "deleting member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *memberApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting members")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *memberApi) setPhoto(ctx echo.Context) error {
	m, err := contextMember(ctx)
	if err != nil {
		return err
	}
	r, closeFn, err := uploadedFile(ctx, photoFormField)
	if err != nil {
		return err
	}
	defer closeFn()

	m, err = api.svc.SetPhoto(ctx.Request().Context(), m, r)
	if err != nil {
		return errors.Wrap(err, "setting photo")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *memberApi) getPhoto(ctx echo.Context) error {
	m, err := contextMember(ctx)
	if err != nil {
		return err
	}
	info, rc, err := api.svc.GetPhoto(ctx.Request().Context(), m)
	if err != nil {
		return errors.Wrap(err, "getting photo")
	}
	return streamBlob(ctx, info, rc)
}

// uploadedFile returns the multipart file `field`, or the raw request body for non multipart uploads.
func uploadedFile(ctx echo.Context, field string) (io.Reader, func(), error) {
	if !strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return ctx.Request().Body, func() {}, nil
	}
	fh, err := ctx.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil, core.NewFieldError(field, "this field is required")
		}
		return nil, nil, errors.Wrap(err, "reading multipart form")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening uploaded file")
	}
	return f, func() { _ = f.Close() }, nil
}

func streamBlob(ctx echo.Context, info core.BlobInfo, rc io.ReadCloser) error {
	defer rc.Close()
	h := ctx.Response().Header()
	if info.Size > 0 {
		h.Set(echo.HeaderContentLength, strconv.FormatInt(info.Size, 10))
	}
	if info.ETag != "" {
		h.Set("ETag", `"`+info.ETag+`"`)
	}
	if !info.LastModified.IsZero() {
		h.Set(echo.HeaderLastModified, info.LastModified.UTC().Format(http.TimeFormat))
	}
	h.Set("Cache-Control", "private, max-age=300")
	contentType := info.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return ctx.Stream(http.StatusOK, contentType, rc)
}
