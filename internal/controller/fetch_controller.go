package controller

import (
	"strconv"

	"ecourts-fetcher-be/internal/dto"
	"ecourts-fetcher-be/internal/pkg/serverutils"
	"ecourts-fetcher-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IFetchController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	StartCnr(ctx *fiber.Ctx) error
	StartCourt(ctx *fiber.Ctx) error
	Submit(ctx *fiber.Ctx) error
	ListRuns(ctx *fiber.Ctx) error
	GetRun(ctx *fiber.Ctx) error
	GetLog(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type fetchController struct {
	service service.IFetchService
}

func NewFetchController(service service.IFetchService) IFetchController {
	return &fetchController{service: service}
}

func (c *fetchController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/fetch")
	h.Use(auth)
	h.Post("/cnr", c.StartCnr)
	h.Post("/court", c.StartCourt)
	h.Get("/runs", c.ListRuns)
	h.Get("/runs/:id", c.GetRun)
	h.Delete("/runs/:id", c.DiscardRun)
	h.Post("/runs/:id/submit", c.Submit)
	h.Get("/runs/:id/log", c.GetLog)
	h.Get("/download", c.Download)
	h.Get("/history", c.History)
}

func (c *fetchController) StartCnr(ctx *fiber.Ctx) error {
	var req dto.StartCnrRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.StartCnr(ctx.Context(), serverutils.OwnerFromCtx(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Run started", res))
}

func (c *fetchController) StartCourt(ctx *fiber.Ctx) error {
	var req dto.StartCourtRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.StartCourt(ctx.Context(), serverutils.OwnerFromCtx(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Run started", res))
}

func (c *fetchController) Submit(ctx *fiber.Ctx) error {
	runId, err := parseRunId(ctx)
	if err != nil {
		return err
	}

	var req dto.SubmitCaptchaRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Submit(ctx.Context(), serverutils.OwnerFromCtx(ctx), runId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Captcha submitted", res))
}

func (c *fetchController) ListRuns(ctx *fiber.Ctx) error {
	res, err := c.service.ListRuns(ctx.Context(), serverutils.OwnerFromCtx(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Active runs", res))
}

func (c *fetchController) GetRun(ctx *fiber.Ctx) error {
	runId, err := parseRunId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetRun(ctx.Context(), serverutils.OwnerFromCtx(ctx), runId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Run", res))
}

func (c *fetchController) DiscardRun(ctx *fiber.Ctx) error {
	runId, err := parseRunId(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DiscardRun(ctx.Context(), serverutils.OwnerFromCtx(ctx), runId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Run discarded", nil))
}

func (c *fetchController) GetLog(ctx *fiber.Ctx) error {
	runId, err := parseRunId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetLog(ctx.Context(), serverutils.OwnerFromCtx(ctx), runId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Run log", res))
}

func (c *fetchController) Download(ctx *fiber.Ctx) error {
	reference := ctx.Query("path", "")
	if reference == "" {
		return fiber.NewError(fiber.StatusBadRequest, "path parameter is required")
	}

	dl, err := c.service.Download(ctx.Context(), serverutils.OwnerFromCtx(ctx), reference)
	if err != nil {
		return err
	}

	ctx.Attachment(dl.Filename)
	if dl.ContentType != "" {
		ctx.Set(fiber.HeaderContentType, dl.ContentType)
	}
	size := -1
	if dl.ContentLength >= 0 {
		size = int(dl.ContentLength)
	}
	// fasthttp closes the stream once it has been written out.
	return ctx.SendStream(dl.Body, size)
}

func (c *fetchController) History(ctx *fiber.Ctx) error {
	var req dto.HistoryRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.History(ctx.Context(), serverutils.OwnerFromCtx(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Fetch history", res))
}

func parseRunId(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid run id: "+strconv.Quote(ctx.Params("id")))
	}
	return id, nil
}
