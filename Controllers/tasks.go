package Controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"Lulan/Catalog"
	"Lulan/Models"
	"Lulan/Notifications"
	"Lulan/Reports"
	"Lulan/Store"
)

// TaskController handles the delivery queue
type TaskController struct {
	Store    *Store.Store
	Catalog  Catalog.Catalog
	Notifier Notifications.Notifier
}

func NewTaskController(store *Store.Store, catalog Catalog.Catalog, notifier Notifications.Notifier) *TaskController {
	return &TaskController{Store: store, Catalog: catalog, Notifier: notifier}
}

func (t *TaskController) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(t.Catalog)
}

func (t *TaskController) GetTasks(c *fiber.Ctx) error {
	return c.JSON(t.Store.Tasks())
}

// CreateTask validates against the catalog, queues the task and notifies
// for urgent requests
func (t *TaskController) CreateTask(c *fiber.Ctx) error {
	var input Models.NewTask
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	input = input.Normalize()
	if err := t.Catalog.Validate(input); err != nil {
		return Fail(c, err)
	}

	task, err := t.Store.AddTask(c.UserContext(), input)
	if err != nil {
		return Fail(c, err)
	}
	if t.Notifier != nil {
		if err := t.Notifier.TaskCreated(c.UserContext(), task, t.Store.Flags()); err != nil {
			log.Printf("Error notifying for task %s: %v", task.ID, err)
		}
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Delivery request submitted successfully!",
		"task":    task,
	})
}

func (t *TaskController) ClearTasks(c *fiber.Ctx) error {
	if err := t.Store.ClearTasks(c.UserContext()); err != nil {
		return Fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (t *TaskController) Summary(c *fiber.Ctx) error {
	return c.JSON(Reports.Summarize(t.Store.Tasks()))
}

// Export downloads the queue as an xlsx workbook
func (t *TaskController) Export(c *fiber.Ctx) error {
	buf, err := Reports.Workbook(t.Store.Tasks())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="deliveries.xlsx"`)
	return c.Send(buf.Bytes())
}
