package domain

// Области ограничения частоты запросов. Ключ лимитера: "<scope>:<client ip>".
const (
	RateLimitScopeSignup = "signup"
	RateLimitScopeLogin  = "login"
)
