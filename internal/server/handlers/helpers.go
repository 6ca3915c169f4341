package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

// ActorHeader carries the id of the acting administrator.
const (
	ActorHeader  = "X-Actor-ID"
	defaultActor = "admin"
	dayLayout    = "2006-01-02"
)

var validate = validator.New()

func init() {
	_ = validate.RegisterValidation("customer_type", func(fl validator.FieldLevel) bool {
		return models.CustomerType(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return primitive.IsValidObjectID(fl.Field().String())
	})
}

// bindAndValidate binds the JSON body and runs the validate tags.
// On failure the error response is written and false is returned.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondFailure(c, http.StatusBadRequest, models.CodeValidation, "invalid JSON body: "+err.Error(), nil)
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			respondFailure(c, http.StatusBadRequest, models.CodeValidation, err.Error(), nil)
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		respondFailure(c, http.StatusBadRequest, models.CodeValidation, "request validation failed", fields)
		return false
	}
	return true
}

func actor(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(ActorHeader)); id != "" {
		return id
	}
	return defaultActor
}

func parseObjectID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, models.Validation(models.CodeInvalidID, "invalid id "+strconv.Quote(raw))
	}
	return id, nil
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := parseObjectID(c.Param(name))
	if err != nil {
		respondError(c, nil, err, models.CodeInvalidID, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// queryParser collects the first malformed query parameter.
type queryParser struct {
	c   *gin.Context
	err error
}

func (p *queryParser) fail(name, want string) {
	if p.err == nil {
		p.err = models.Validation(models.CodeValidation, name+" must be "+want)
	}
}

func (p *queryParser) intParam(name string) int {
	raw := strings.TrimSpace(p.c.Query(name))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(name, "an integer")
		return 0
	}
	return v
}

func (p *queryParser) boolParam(name string) bool {
	raw := strings.TrimSpace(p.c.Query(name))
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(name, "true or false")
		return false
	}
	return v
}

func (p *queryParser) idParam(name string) *primitive.ObjectID {
	raw := strings.TrimSpace(p.c.Query(name))
	if raw == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		p.fail(name, "a valid id")
		return nil
	}
	return &id
}

// idListParam reads ids given either comma separated or as repeated keys.
func (p *queryParser) idListParam(name string) []primitive.ObjectID {
	var ids []primitive.ObjectID
	for _, raw := range p.c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := primitive.ObjectIDFromHex(part)
			if err != nil {
				p.fail(name, "a comma separated list of valid ids")
				return nil
			}
			ids = append(ids, id)
		}
	}
	return ids
}

// timeParam accepts RFC 3339 timestamps or plain dates. With endOfDay a plain
// date covers the whole day.
func (p *queryParser) timeParam(name string, endOfDay bool) *time.Time {
	raw := strings.TrimSpace(p.c.Query(name))
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t
	}
	t, err := time.Parse(dayLayout, raw)
	if err != nil {
		p.fail(name, "a date (YYYY-MM-DD) or RFC 3339 timestamp")
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}

func (p *queryParser) orderParam(name string) models.SortOrder {
	switch raw := strings.ToLower(strings.TrimSpace(p.c.Query(name))); raw {
	case "":
		return models.SortDesc
	case string(models.SortAsc), string(models.SortDesc):
		return models.ParseSortOrder(raw)
	default:
		p.fail(name, "asc or desc")
		return models.SortDesc
	}
}
