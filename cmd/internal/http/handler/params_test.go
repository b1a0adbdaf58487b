package handler

import (
	"familynotes/cmd/internal/domain/entity"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramContext(names []string, values []string) echo.Context {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

func TestCreatorParam(t *testing.T) {
	user := &entity.User{ID: 99}

	tests := []struct {
		raw    string
		want   int64
		reject bool
	}{
		{raw: "@me", want: 99},
		{raw: "42", want: 42},
		{raw: "0", reject: true},
		{raw: "me", reject: true},
		{raw: "", reject: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := paramContext([]string{"creatorId"}, []string{tt.raw})
			got, apierr := creatorParam(c, user)

			if tt.reject {
				if apierr == nil || apierr.Code() != http.StatusBadRequest {
					t.Fatalf("expected 400, got %v", apierr)
				}
				return
			}

			if apierr != nil {
				t.Fatalf("unexpected error %v", apierr)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestIDParamRejectsAlias(t *testing.T) {
	c := paramContext([]string{"id"}, []string{"@me"})
	if _, apierr := idParam(c, "id"); apierr == nil {
		t.Fatal("@me is only valid for creators")
	}
}

func TestCategoryParam(t *testing.T) {
	c := paramContext([]string{"category"}, []string{"funeral"})
	got, apierr := categoryParam(c)
	if apierr != nil || got != entity.CategoryFuneral {
		t.Fatalf("expected funeral, got %q %v", got, apierr)
	}

	c = paramContext([]string{"category"}, []string{"Funeral"})
	if _, apierr := categoryParam(c); apierr == nil {
		t.Fatal("categories are case sensitive")
	}
}
