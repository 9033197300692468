package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/solar-data-layers/internal/log"
	"github.com/i474232898/solar-data-layers/internal/solar"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, pipeline *solar.Pipeline) {
	v1 := app.Group("/api/v1/solar")

	v1.Get("/location", func(c *fiber.Ctx) error {
		q, err := parseAddressQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		point, err := pipeline.Resolve(c.UserContext(), q.Address)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(fiber.Map{
			"address": q.Address,
			"point":   point,
		})
	})

	v1.Get("/layers", func(c *fiber.Ctx) error {
		q, err := parseAddressQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := pipeline.Query(c.UserContext(), q.Address)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(newReportResponse(report))
	})

	v1.Get("/layers/:layer/image", func(c *fiber.Ctx) error {
		var q imageQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		layers, err := pipeline.Layer(c.UserContext(), q.Address, q.Layer)
		if err != nil {
			return toFiberError(err)
		}
		if q.Index >= len(layers) {
			return fiber.NewError(fiber.StatusNotFound, "image index out of range")
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, layers[q.Index].Image(nil)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to encode image")
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(buf.Bytes())
	})

	v1.Get("/insights", func(c *fiber.Ctx) error {
		q, err := parseAddressQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		raw, err := pipeline.Insights(c.UserContext(), q.Address)
		if err != nil {
			return toFiberError(err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(raw)
	})

	v1.Get("/map", func(c *fiber.Ctx) error {
		q, err := parseAddressQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		img, err := pipeline.Map(c.UserContext(), q.Address)
		if err != nil {
			return toFiberError(err)
		}
		c.Set(fiber.HeaderContentType, img.ContentType)
		return c.Send(img.Data)
	})
}

// toFiberError maps pipeline errors onto HTTP statuses.
func toFiberError(err error) error {
	switch {
	case errors.Is(err, solar.ErrResolution):
		return fiber.NewError(fiber.StatusNotFound, "address could not be resolved")
	case errors.Is(err, solar.ErrMissingLayer):
		return fiber.NewError(fiber.StatusNotFound, "layer not available for this location")
	case errors.Is(err, solar.ErrLocate), errors.Is(err, solar.ErrFetch):
		log.Warn("upstream call failed", zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, "upstream service failed")
	case errors.Is(err, solar.ErrNotConfigured):
		return fiber.NewError(fiber.StatusNotImplemented, err.Error())
	case errors.Is(err, solar.ErrDecode), errors.Is(err, solar.ErrRender):
		log.Error("layer processing failed", zap.Error(err))
		return fiber.NewError(fiber.StatusUnprocessableEntity, "layer could not be rendered")
	default:
		log.Error("request failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "request failed")
	}
}

// addressQuery holds the address every solar endpoint is keyed by.
type addressQuery struct {
	Address string `validate:"required,max=512"`
}

func parseAddressQuery(c *fiber.Ctx) (addressQuery, error) {
	q := addressQuery{Address: c.Query("address")}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// imageQuery selects one image of one layer.
type imageQuery struct {
	addressQuery
	Layer solar.LayerName
	Index int `validate:"gte=0"`
}

func (q *imageQuery) bind(c *fiber.Ctx) error {
	addr, err := parseAddressQuery(c)
	if err != nil {
		return err
	}
	q.addressQuery = addr

	name, err := solar.ParseLayerName(c.Params("layer"))
	if err != nil {
		return err
	}
	q.Layer = name
	q.Index = c.QueryInt("index", 0)

	return validate.Struct(q)
}

type reportResponse struct {
	Address string          `json:"address"`
	Point   solar.GeoPoint  `json:"point"`
	Layers  []layerResponse `json:"layers"`
}

type layerResponse struct {
	Name    solar.LayerName `json:"name"`
	Outcome solar.Outcome   `json:"outcome"`
	Error   string          `json:"error,omitempty"`
	Images  []imageResponse `json:"images"`
}

type imageResponse struct {
	Title string `json:"title"`
	Kind  string `json:"kind"`
	Shape []int  `json:"shape"`
	Href  string `json:"href"`
}

func newReportResponse(r *solar.Report) reportResponse {
	out := reportResponse{Address: r.Address, Point: r.Point}
	for _, res := range r.Layers {
		lr := layerResponse{Name: res.Name, Outcome: res.Outcome, Images: []imageResponse{}}
		if res.Err != nil {
			lr.Error = res.Err.Error()
		}
		for i, l := range res.Layers {
			lr.Images = append(lr.Images, imageResponse{
				Title: l.Title,
				Kind:  l.Kind.String(),
				Shape: l.Shape(),
				Href:  imageHref(r.Address, res.Name, i),
			})
		}
		out.Layers = append(out.Layers, lr)
	}
	return out
}

func imageHref(address string, name solar.LayerName, index int) string {
	q := url.Values{}
	q.Set("address", address)
	q.Set("index", fmt.Sprint(index))
	return fmt.Sprintf("/api/v1/solar/layers/%s/image?%s", name, q.Encode())
}
