package contextkeys

// Custom type so keys never collide with other packages.
type contextKey string

// DBContextKey holds the *gorm.DB (pool or transaction) for the request.
const DBContextKey = contextKey("db")

// IdentityContextKey holds the models.Identity resolved from the bearer token.
const IdentityContextKey = contextKey("identity")
