package controller

import (
	"fmt"

	"care-advisor-be/internal/dto"
	"care-advisor-be/internal/pkg/serverutils"
	"care-advisor-be/internal/service"
	"care-advisor-be/pkg/reference"

	"github.com/gofiber/fiber/v2"
)

type IReferenceController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
}

// referenceController serves one reference collection (cases or scripts).
type referenceController struct {
	service   service.IReferenceService
	path      string
	jwtSecret string
}

func NewReferenceController(service service.IReferenceService, path, jwtSecret string) IReferenceController {
	return &referenceController{service: service, path: path, jwtSecret: jwtSecret}
}

func (c *referenceController) RegisterRoutes(r fiber.Router) {
	h := r.Group(c.path)
	h.Get("", c.GetAll)
	h.Get(":id", c.Show)
	h.Post("search", c.Search)
	h.Post("", serverutils.JwtMiddleware(c.jwtSecret), c.Create)
}

func (c *referenceController) GetAll(ctx *fiber.Ctx) error {
	res := c.service.GetAll(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse(fmt.Sprintf("Success get all %ss", c.service.Kind()), res))
}

func (c *referenceController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Show(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(fmt.Sprintf("Success show %s", c.service.Kind()), res))
}

func (c *referenceController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateReferenceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse(fmt.Sprintf("Success create %s", c.service.Kind()), res))
}

// Search takes the attribute query as the raw body; ?top_k= and ?mode=
// (best|similar) tune the result.
func (c *referenceController) Search(ctx *fiber.Ctx) error {
	mode := reference.ParseMode(ctx.Query("mode", string(reference.ModeSimilar)))
	res := c.service.Search(ctx.UserContext(), ctx.Body(), ctx.QueryInt("top_k", 0), mode)
	return ctx.JSON(serverutils.SuccessResponse(fmt.Sprintf("Success search %ss", c.service.Kind()), res))
}
