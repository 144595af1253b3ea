// Package environment names the deployment environments the service knows
// about and normalises the APP_ENV value into one of them.
//
//	env := environment.Parse(os.Getenv("APP_ENV"))
//	if env.IsDevelopment() {
//		// accept the development API key
//	}
package environment
