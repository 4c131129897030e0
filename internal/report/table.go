package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

const (
	rankColumnHeaderConstant       = "Rank"
	updatedColumnHeaderConstant    = "Updated"
	typeColumnHeaderConstant       = "Type"
	depthColumnHeaderConstant      = "Depth"
	pathColumnHeaderConstant       = "Path"
	repositoryColumnHeaderConstant = "Repository"
	emptyTableSeparatorConstant    = ""
)

// TableRenderer prints ranked records as an aligned console table.
type TableRenderer struct {
	IncludeRepository bool
}

// Render writes the table for records to writer. Nothing is written for an empty record set.
func (renderer TableRenderer) Render(writer io.Writer, records []Record) {
	if len(records) == 0 {
		return
	}

	table := tablewriter.NewWriter(writer)
	headers := []string{rankColumnHeaderConstant, updatedColumnHeaderConstant, typeColumnHeaderConstant, depthColumnHeaderConstant, pathColumnHeaderConstant}
	if renderer.IncludeRepository {
		headers = append(headers, repositoryColumnHeaderConstant)
	}
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator(emptyTableSeparatorConstant)
	table.SetColumnSeparator(emptyTableSeparatorConstant)
	table.SetRowSeparator(emptyTableSeparatorConstant)
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, record := range records {
		row := []string{
			strconv.Itoa(record.Rank),
			record.UpdatedAt,
			record.Type,
			strconv.Itoa(record.Depth),
			record.RelativePath,
		}
		if renderer.IncludeRepository {
			row = append(row, record.Repository)
		}
		table.Append(row)
	}
	table.Render()
}
