// scraper/dataset_index.go
package scraper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gewnthar/flightstats/models"
)

// Yearly flight files are named like 2007.csv or 2007.csv.bz2.
var datasetFileRegex = regexp.MustCompile(`^((?:19|20)\d{2})\.csv(?:\.bz2)?$`)

// matchDatasetName returns the year of a dataset file name.
func matchDatasetName(name string) (int, bool) {
	matches := datasetFileRegex.FindStringSubmatch(strings.TrimSpace(name))
	if len(matches) < 2 {
		return 0, false
	}
	year, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// ParseDatasetIndex finds yearly flight file links in an HTML page. A link matches when either
// its path or its text is a yearly file name; relative links are resolved against baseURL.
// The first link seen for a year wins. Results are ordered by year.
func ParseDatasetIndex(r io.Reader, baseURL, linkSelector string) ([]models.Dataset, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid index URL %s: %w", baseURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", baseURL, err)
	}
	if linkSelector == "" {
		linkSelector = "a[href]"
	}

	byYear := make(map[int]models.Dataset)
	doc.Find(linkSelector).Each(func(i int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			log.Printf("WARN Scraper: skipping unparsable link %q on %s: %v", href, baseURL, err)
			return
		}

		name := path.Base(ref.Path)
		year, ok := matchDatasetName(name)
		if !ok {
			name = strings.TrimSpace(link.Text())
			if year, ok = matchDatasetName(name); !ok {
				return
			}
		}
		if _, seen := byYear[year]; seen {
			return
		}
		byYear[year] = models.Dataset{Year: year, URL: base.ResolveReference(ref).String(), Filename: name}
	})

	datasets := make([]models.Dataset, 0, len(byYear))
	for _, ds := range byYear {
		datasets = append(datasets, ds)
	}
	slices.SortFunc(datasets, func(a, b models.Dataset) int { return a.Year - b.Year })
	return datasets, nil
}

// DiscoverDatasets downloads the dataset index page and lists the yearly flight files on it.
func (d *Downloader) DiscoverDatasets(ctx context.Context, pageURL, linkSelector string) ([]models.Dataset, error) {
	log.Printf("Scraper: Discovering datasets on %s (links: '%s')", pageURL, linkSelector)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", pageURL, err)
	}
	res, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get URL %s: %w", pageURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get URL %s: status code %d", pageURL, res.StatusCode)
	}

	datasets, err := ParseDatasetIndex(res.Body, pageURL, linkSelector)
	if err != nil {
		return nil, err
	}
	if len(datasets) == 0 {
		log.Printf("WARN Scraper: No yearly flight files found on %s with selector '%s'.", pageURL, linkSelector)
	}
	log.Printf("Scraper: Found %d yearly flight files on %s", len(datasets), pageURL)
	return datasets, nil
}

// FindDataset picks the dataset for year.
func FindDataset(datasets []models.Dataset, year int) (models.Dataset, bool) {
	for _, ds := range datasets {
		if ds.Year == year {
			return ds, true
		}
	}
	return models.Dataset{}, false
}
