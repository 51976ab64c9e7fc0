package handler

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmko-sec/secdash/internal/domain"
)

func TestQueryToRequest(t *testing.T) {
	q, err := url.ParseQuery("search=mac&platform=macOS,Windows&risk_level=Critical&sort=username&dir=desc&page=3&page_size=25&start_date=2024-01-01&end_date=2024-03-31")
	require.NoError(t, err)

	req := queryToRequest(q)

	assert.Equal(t, "mac", req.Filter.SearchTerm)
	assert.Equal(t, []string{"macOS", "Windows"}, req.Filter.Platforms)
	assert.Equal(t, []string{"Critical"}, req.Filter.RiskLevels)

	assert.Equal(t, "username", req.Sort.Field)
	assert.Equal(t, domain.SortDesc, req.Sort.Direction)

	assert.Equal(t, 3, req.Page.CurrentPage)
	assert.Equal(t, 25, req.Page.ItemsPerPage)

	require.NotNil(t, req.Filter.StartDate)
	require.NotNil(t, req.Filter.EndDate)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *req.Filter.StartDate)
}

func TestQueryToRequestDefaults(t *testing.T) {
	req := queryToRequest(url.Values{})

	assert.True(t, req.Filter.Empty())
	assert.Equal(t, domain.SortAsc, req.Sort.Direction)
	assert.Equal(t, 1, req.Page.CurrentPage)
	assert.Equal(t, domain.PageSizes[0], req.Page.ItemsPerPage)
}

func TestQueryToRequestIgnoresGarbage(t *testing.T) {
	q := url.Values{
		"page":       {"-5"},
		"page_size":  {"abc"},
		"start_date": {"01/02/2024"}, // only ISO accepted on the wire
		"platform":   {" , , "},
	}
	req := queryToRequest(q)

	assert.Equal(t, 1, req.Page.CurrentPage)
	assert.Equal(t, domain.PageSizes[0], req.Page.ItemsPerPage)
	assert.Nil(t, req.Filter.StartDate)
	assert.Empty(t, req.Filter.Platforms)
}
