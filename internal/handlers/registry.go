package handlers

// AppHandlers holds every HTTP handler of the application.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	UserHandler         *UserHandler
	ConversationHandler *ConversationHandler
	MessageHandler      *MessageHandler
	NotificationHandler *NotificationHandler
	AdminHandler        *AdminHandler
}
