// Package auth provides authentication for the application: username/password
// signup and login over the user table, server-side session cookies for
// browsers, and signed JWT bearer tokens for API clients.
//
// The access guard (Middleware) gates protected routes by trying the bearer
// token first and falling back to the session; a failed token never rejects a
// request by itself, it only disqualifies the token path.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>   # CSRF signing secret; auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h            # Session duration
//	AUTH_TOKEN_SECRET=<hex-32-bytes>     # JWT signing secret; auto-generated if empty
//	AUTH_TOKEN_TTL=1h                    # JWT validity window
//	AUTH_BCRYPT_COST=12                  # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true             # HTTPS-only cookies
//
// # Usage
//
// Initialize in the entrypoint:
//
//	authService := auth.NewService(userRepo, cfg.Auth)
//	issuer := auth.NewTokenIssuer(secret, cfg.Auth.TokenTTL)
//	guard := auth.NewMiddleware(authService, sessionManager, issuer)
//	router.Use(guard.Handler())
//
// Extract the resolved user in handlers:
//
//	userID := auth.GetUserID(c) // 0 when unauthenticated
package auth
