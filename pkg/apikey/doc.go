// Package apikey guards service-to-service endpoints with a shared key sent
// in the cb-api-key header.
//
//	keys := cfg.APIKeys.Keys(cfg.AppEnv)
//	r.With(apikey.Middleware(keys...)).Mount("/notify", notifyRouter)
package apikey
