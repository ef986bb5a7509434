package region

// newTestRegion builds a freshly-zeroed region spanning pages pages, for use
// by this package's own tests, rather than repeating the same Init
// boilerplate in every test file.
func newTestRegion(pages int) *Region {
	buf := make([]byte, pages*PageSize)
	r, err := Init(buf)
	if err != nil {
		panic(err)
	}
	return r
}
