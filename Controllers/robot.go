package Controllers

import (
	"github.com/gofiber/fiber/v2"

	"Lulan/Robot"
	"Lulan/Store"
)

// RobotController serves the dashboard status and manual controls
type RobotController struct {
	Monitor *Robot.Monitor
	Store   *Store.Store
}

func NewRobotController(monitor *Robot.Monitor, store *Store.Store) *RobotController {
	return &RobotController{Monitor: monitor, Store: store}
}

func (r *RobotController) GetStatus(c *fiber.Ctx) error {
	status := r.Monitor.Status()
	floor := Robot.DefaultFloorMap()
	width, height := floor.PixelSize()

	path := Robot.MockPath()
	pixels := make([]Robot.Point, len(path))
	for i, p := range path {
		pixels[i] = floor.ToPixels(p)
	}

	return c.JSON(fiber.Map{
		"status":       status,
		"status_color": Robot.StatusColor(status.Online),
		"battery":      Robot.BatteryBand(status.Battery),
		"map": fiber.Map{
			"width":    width,
			"height":   height,
			"position": floor.ToPixels(Robot.Point{X: status.X, Y: status.Y}),
			"path":     pixels,
		},
	})
}

type commandInput struct {
	Kind string `json:"kind"`
}

// SendCommand handles the pause, resume and stop buttons
func (r *RobotController) SendCommand(c *fiber.Ctx) error {
	var input commandInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	identity, _ := r.Store.Identity()
	cmd, err := r.Monitor.SendCommand(c.UserContext(), Robot.Command{
		Kind:     Robot.CommandKind(input.Kind),
		Source:   Robot.Manual,
		IssuedBy: identity.UID,
	}, r.Store.Flags())
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(fiber.Map{"message": cmd.Kind.Acknowledgement(), "command": cmd})
}
