package services

// ServiceContainer holds every application service.
type ServiceContainer struct {
	AuthService         AuthService
	UserService         UserService
	MessageService      MessageService
	ConversationService ConversationService
	NotificationService NotificationService
	AdminService        AdminService
}
