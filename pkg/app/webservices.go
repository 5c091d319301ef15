package app

import (
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// runWebServer starts the applications web server and listens for web requests.
//
//	It's designed to run in a separate go function to not block the main go function.
//	e.g.: go runWebServer()
//	See app.Run()
func (app *App) runWebServer() {
	err := app.web.Listen(app.urlParsed.Host)
	debug.ErrorLog.Print(err)
}

// HandleData returns the last reading of each channel, ordered by channel.
func (app *App) HandleData() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request data")

		return ctx.JSON(app.lastReadings())
	}
}

func (app *App) lastReadings() []record {
	app.readings.Lock()
	defer app.readings.Unlock()

	data := make([]record, 0, len(app.readings.data))
	for _, r := range app.readings.data {
		data = append(data, r)
	}

	sort.Slice(data, func(i, j int) bool { return data[i].Channel < data[j].Channel })
	return data
}
