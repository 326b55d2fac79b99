package utils

import (
	"strconv"

	"github.com/kataras/iris/v12"
)

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

// JSONPage writes the data/meta/links pagination envelope used by every list
// endpoint. Links carry self plus prev/next URLs when those pages exist,
// preserving the request's other query parameters.
func JSONPage(ctx iris.Context, data interface{}, page, perPage int, total int64) {
	links := iris.Map{"self": pageURL(ctx, page, perPage)}
	if page > 1 {
		links["prev"] = pageURL(ctx, page-1, perPage)
	}
	if int64(page)*int64(perPage) < total {
		links["next"] = pageURL(ctx, page+1, perPage)
	}

	ctx.JSON(iris.Map{
		"data":  data,
		"meta":  PageMeta{Page: page, PerPage: perPage, Total: total},
		"links": links,
	})
}

func pageURL(ctx iris.Context, page, perPage int) string {
	q := ctx.Request().URL.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return ctx.Path() + "?" + q.Encode()
}

func JSONError(ctx iris.Context, status int, code, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"error": code, "message": message})
}
