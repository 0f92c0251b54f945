package persistence

import (
	"fmt"
	"net/url"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NewMongoDb returns a client for the run report store. Connecting is lazy; callers ping to verify.
func NewMongoDb(host, port, user, password, name string) (*mongo.Client, error) {
	if host == "" {
		return nil, fmt.Errorf("mongo host not configured")
	}
	u := &url.URL{Scheme: "mongodb", Host: fmt.Sprintf("%s:%s", host, port), Path: "/"}
	if user != "" {
		u.User = url.UserPassword(user, password)
		q := url.Values{}
		q.Set("authSource", "admin")
		u.RawQuery = q.Encode()
	}
	return mongo.Connect(options.Client().ApplyURI(u.String()).SetAppName(name))
}
