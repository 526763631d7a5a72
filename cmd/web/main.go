// @title           Messaging API
// @version         1.0
// @description     Direct messages, threads, conversations and notifications.
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import "messaging_backend/internal/app"

func main() {
	app.Run()
}
