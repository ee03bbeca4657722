package httputil

import "github.com/gin-gonic/gin"

// Resource is a read-only part of the inspection API served under Root.
type Resource interface {
	Root() string
	Routes(r gin.IRoutes)
}

// Mount registers every resource under its own group of parent.
func Mount(parent *gin.RouterGroup, resources ...Resource) {
	for _, res := range resources {
		res.Routes(parent.Group(res.Root()))
	}
}
