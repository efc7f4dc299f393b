// Package httpapi exposes the token lifecycle over HTTP.
//
//	POST /auth/login                        {"identifier","password"} -> token pair
//	POST /auth/reissue                      Authorization: old access, {"refreshToken"}
//	POST /auth/logout                       Authorization: access token
//	GET  /auth/me                           current principal
//	POST /admin/members/{uid}/force-expire  X-Admin-Secret
//	GET  /admin/force-expired               ROLE_ADMIN
//	GET  /metrics                           Prometheus text format
//
// Business-rule rejections answer 204 with an api-result-code header so
// clients can branch without parsing a body. A locked login is the one
// exception: it answers 200 with the lock window and api-result-code 2.
package httpapi
