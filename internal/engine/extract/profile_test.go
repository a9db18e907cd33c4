package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/profiler/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profilePage = `<!DOCTYPE html>
<html><head>
<title>(3) Ann Lee | LinkedIn</title>
<script>window.tracking = true;</script>
<meta property="og:title" content="Ann Lee - Staff Engineer | LinkedIn">
</head>
<body>
<main>
  <section class="artdeco-card">
    <div class="pv-text-details__left-panel">
      <h1 class="text-heading-xlarge" style="color:red">  Ann   Lee </h1>
      <div class="text-body-medium break-words" data-generated="x">Staff Engineer at Acme | Go, Distributed Systems</div>
    </div>
  </section>

  <section class="artdeco-card">
    <div id="about" class="pv-profile-card__anchor"></div>
    <div class="display-flex"><span aria-hidden="true">About</span><span class="visually-hidden">About</span></div>
    <div class="inline-show-more-text">
      <span aria-hidden="true">I build <strong>reliable</strong> systems.<br><br>Previously at <a href="https://example.com" onclick="x()">Initech</a>.</span>
      <span class="visually-hidden">I build reliable systems. Previously at Initech.</span>
    </div>
  </section>

  <section class="artdeco-card">
    <div id="experience" class="pv-profile-card__anchor"></div>
    <ul>
      <li class="artdeco-list__item">
        <div class="t-bold"><span aria-hidden="true">Staff Engineer</span><span class="visually-hidden">Staff Engineer</span></div>
        <span class="t-14 t-normal"><span aria-hidden="true">Acme · Full-time</span></span>
        <span class="t-14 t-normal t-black--light"><span aria-hidden="true">2021 - Present</span></span>
      </li>
      <li class="artdeco-list__item">
        <div class="t-bold"><span aria-hidden="true">Globex</span></div>
        <span class="t-14 t-normal"><span aria-hidden="true">4 yrs</span></span>
        <ul>
          <li class="pvs-list__paged-list-item"><div class="t-bold"><span aria-hidden="true">Senior Engineer</span></div></li>
          <li class="pvs-list__paged-list-item"><div class="t-bold"><span aria-hidden="true">Engineer</span></div></li>
        </ul>
      </li>
    </ul>
  </section>

  <section class="artdeco-card">
    <div id="education" class="pv-profile-card__anchor"></div>
    <ul>
      <li class="artdeco-list__item">
        <div class="t-bold"><span aria-hidden="true">MIT</span></div>
        <span class="t-14 t-normal"><span aria-hidden="true">BSc, Computer Science</span></span>
        <span class="t-14 t-normal t-black--light"><span aria-hidden="true">2010 - 2014</span></span>
      </li>
      <li class="artdeco-list__item">
        <div class="t-bold"><span aria-hidden="true">Springfield High</span></div>
      </li>
    </ul>
  </section>

  <section class="artdeco-card">
    <div id="skills" class="pv-profile-card__anchor"></div>
    <ul>
      <li class="artdeco-list__item">
        <div class="t-bold"><span aria-hidden="true">Go</span></div>
        <ul><li class="pvs-list__paged-list-item"><div class="t-bold"><span aria-hidden="true">12 endorsements</span></div></li></ul>
      </li>
      <li class="artdeco-list__item"><div class="t-bold"><span aria-hidden="true">Kubernetes</span></div></li>
      <li class="artdeco-list__item"><div class="t-bold"><span aria-hidden="true">Go</span></div></li>
    </ul>
  </section>
</main>
</body></html>`

func TestProfile(t *testing.T) {
	rec, err := Profile(profilePage)
	require.NoError(t, err)

	assert.Equal(t, "Ann Lee", rec.Name)
	assert.Equal(t, "Staff Engineer at Acme | Go, Distributed Systems", rec.Headline)
	assert.Empty(t, rec.URL)

	assert.Contains(t, rec.About, "I build **reliable** systems.")
	assert.Contains(t, rec.About, "[Initech](https://example.com)")
	assert.NotContains(t, rec.About, "onclick")

	assert.Equal(t, []models.Experience{
		{Title: "Staff Engineer", Company: "Acme"},
		{Title: "Senior Engineer", Company: "Globex"},
		{Title: "Engineer", Company: "Globex"},
	}, rec.Experience)

	assert.Equal(t, []string{"Go", "Kubernetes"}, rec.Skills)
	assert.Equal(t, []string{"MIT, BSc, Computer Science", "Springfield High"}, rec.Education)
}

func TestProfileWithoutSections(t *testing.T) {
	rec, err := Profile(`<html><body><main><h1>Solo Person</h1></main></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Solo Person", rec.Name)
	assert.Empty(t, rec.Headline)
	assert.Empty(t, rec.About)
	assert.Nil(t, rec.Experience)
	assert.Nil(t, rec.Skills)
	assert.Nil(t, rec.Education)
}

func TestProfileNameFromOpenGraph(t *testing.T) {
	page := `<html><head><meta property="og:title" content="Bo Chen - Data Scientist | LinkedIn"></head><body></body></html>`
	rec, err := Profile(page)
	require.NoError(t, err)
	assert.Equal(t, "Bo Chen", rec.Name)
}

func TestProfileAuthwall(t *testing.T) {
	rec, err := Profile(`<html><head><title>Sign Up | LinkedIn</title></head><body><form><input name="email"></form></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, rec.Name)
}

func TestClean(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><div id="a" class="b" style="x" onclick="y()"><script>z()</script><span class="visually-hidden">dup</span><a href="/in/x" target="_blank">x</a></div></body></html>`))
	require.NoError(t, err)
	Clean(doc)

	out, err := doc.Find("body").Html()
	require.NoError(t, err)
	assert.Equal(t, `<div id="a" class="b"><a href="/in/x">x</a></div>`, out)
}

func TestCompanyName(t *testing.T) {
	assert.Equal(t, "Acme", companyName("Acme · Full-time"))
	assert.Equal(t, "Acme", companyName(" Acme "))
	assert.Equal(t, "", companyName(""))
}
