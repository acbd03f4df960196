package export

// Dataset defines tabular export content.
type Dataset struct {
	Name    string
	Headers []string
	Rows    []map[string]string
}

// Report groups several datasets under one title.
type Report struct {
	Title    string
	Sections []Dataset
}

func (d Dataset) record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}
