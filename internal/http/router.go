package http

import (
	"github.com/gin-gonic/gin"
	"github.com/iyhunko/affiliate-catalog/internal/http/controller"
	"github.com/iyhunko/affiliate-catalog/internal/http/middleware"
)

func InitRouter(server *gin.Engine, ctr *controller.Controller, catalogCtr *controller.CatalogController) *gin.Engine {
	server.Use(middleware.Recovery())
	server.Use(middleware.Logger())
	server.Use(middleware.CORS())

	server.GET("/ping", ctr.Ping)

	api := server.Group("/api")
	{
		api.GET("/get-products", catalogCtr.GetProducts)
		api.Any("/update-products", catalogCtr.UpdateProducts)
		api.GET("/fetch-metadata", catalogCtr.FetchMetadata)
	}

	return server
}
