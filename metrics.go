package region

import "github.com/prometheus/client_golang/prometheus"

// Collector adapts a Region's Stats into Prometheus metrics so an embedding
// service can register it alongside its other collectors. It holds no
// state of its own beyond the Region reference; every Collect call takes
// a fresh snapshot via GetStats, so registering it does not require the
// caller to remember to update anything as the region changes.
type Collector struct {
	region *Region

	pagesTotal    *prometheus.Desc
	pagesFree     *prometheus.Desc
	pagesHeap     *prometheus.Desc
	pagesCache    *prometheus.Desc
	heapFreeBytes *prometheus.Desc
	cacheObjects  *prometheus.Desc
	cacheSlabs    *prometheus.Desc
}

// NewCollector wraps r for Prometheus registration.
func NewCollector(r *Region) *Collector {
	return &Collector{
		region: r,
		pagesTotal: prometheus.NewDesc(
			"region_pages_total", "Total pages in the region.", nil, nil),
		pagesFree: prometheus.NewDesc(
			"region_pages_free", "Pages neither assigned to a slab nor to the heap.", nil, nil),
		pagesHeap: prometheus.NewDesc(
			"region_pages_heap", "Pages currently owned by the large-object heap.", nil, nil),
		pagesCache: prometheus.NewDesc(
			"region_pages_cache", "Pages currently formatted as slabs.", nil, nil),
		heapFreeBytes: prometheus.NewDesc(
			"region_heap_free_bytes", "Bytes sitting on the heap's free-block list.", nil, nil),
		cacheObjects: prometheus.NewDesc(
			"region_cache_free_objects", "Free objects available in a size-class cache.", []string{"cache"}, nil),
		cacheSlabs: prometheus.NewDesc(
			"region_cache_slabs", "Slabs belonging to a size-class cache, by list.", []string{"cache", "list"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pagesTotal
	ch <- c.pagesFree
	ch <- c.pagesHeap
	ch <- c.pagesCache
	ch <- c.heapFreeBytes
	ch <- c.cacheObjects
	ch <- c.cacheSlabs
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.region.GetStats()

	ch <- prometheus.MustNewConstMetric(c.pagesTotal, prometheus.GaugeValue, float64(stats.TotalPages))
	ch <- prometheus.MustNewConstMetric(c.pagesFree, prometheus.GaugeValue, float64(stats.FreePages))
	ch <- prometheus.MustNewConstMetric(c.pagesHeap, prometheus.GaugeValue, float64(stats.HeapPages))
	ch <- prometheus.MustNewConstMetric(c.pagesCache, prometheus.GaugeValue, float64(stats.CachePages))
	ch <- prometheus.MustNewConstMetric(c.heapFreeBytes, prometheus.GaugeValue, float64(stats.HeapBytesFree))

	for _, cache := range stats.Caches {
		ch <- prometheus.MustNewConstMetric(c.cacheObjects, prometheus.GaugeValue, float64(cache.FreeObjects), cache.Name)
		ch <- prometheus.MustNewConstMetric(c.cacheSlabs, prometheus.GaugeValue, float64(cache.FullSlabs), cache.Name, "full")
		ch <- prometheus.MustNewConstMetric(c.cacheSlabs, prometheus.GaugeValue, float64(cache.PartialSlabs), cache.Name, "partial")
		ch <- prometheus.MustNewConstMetric(c.cacheSlabs, prometheus.GaugeValue, float64(cache.FreeSlabs), cache.Name, "free")
	}
}
