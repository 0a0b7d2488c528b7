package main

// General API documentation for swaggo. Regenerate the docs package with
// `swag init -g cmd/hidream/docs.go`.
//
// @title           hidream API
// @version         1.0
// @description     HTTP API for HiDream-I1 text-to-image generation with a single resident model.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
