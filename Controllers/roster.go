package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"Lulan/Models"
	"Lulan/Store"
)

// RosterController handles the administrative user list
type RosterController struct {
	Store *Store.Store
}

func NewRosterController(store *Store.Store) *RosterController {
	return &RosterController{Store: store}
}

func (r *RosterController) GetRoster(c *fiber.Ctx) error {
	return c.JSON(r.Store.Roster())
}

func (r *RosterController) CreateRecord(c *fiber.Ctx) error {
	var input Models.UserRecord
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	record, err := r.Store.AddUserRecord(c.UserContext(), input)
	if err != nil {
		return Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (r *RosterController) UpdateRecord(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid roster index"})
	}
	var input Models.UserRecord
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	if err := r.Store.UpdateUserRecord(c.UserContext(), index, input); err != nil {
		return Fail(c, err)
	}
	return c.JSON(r.Store.Roster())
}

func (r *RosterController) DeleteRecord(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid roster index"})
	}
	if err := r.Store.DeleteUserRecord(c.UserContext(), index); err != nil {
		return Fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (r *RosterController) UpdateRecordByID(c *fiber.Ctx) error {
	var input Models.UserRecord
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	if err := r.Store.UpdateUserRecordByID(c.UserContext(), c.Params("id"), input); err != nil {
		return Fail(c, err)
	}
	return c.JSON(r.Store.Roster())
}

func (r *RosterController) DeleteRecordByID(c *fiber.Ctx) error {
	if err := r.Store.DeleteUserRecordByID(c.UserContext(), c.Params("id")); err != nil {
		return Fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
