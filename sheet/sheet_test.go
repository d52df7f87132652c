// Copyright 2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package sheet_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvreports/sheet"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("Load", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("reads a csv table", func() {
		fn := filepath.Join(dir, "reports.csv")
		content := "Stock Symbol,2019,2020,Notes\n" +
			"AAPL,https://example.com/reports/AAPL/2019.html,https://example.com/reports/AAPL/2020.html,big\n" +
			"MSFT,,https://example.com/reports/MSFT/2020.html,\n" +
			",https://example.com/orphan.html,,\n"
		Expect(os.WriteFile(fn, []byte(content), 0644)).To(Succeed())

		table, err := sheet.Load(fn)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Years).To(Equal([]int{2019, 2020}))
		Expect(table.Rows).To(HaveLen(2))

		Expect(table.Rows[0].Symbol).To(Equal("AAPL"))
		Expect(table.Rows[0].URLs).To(Equal(map[int]string{
			2019: "https://example.com/reports/AAPL/2019.html",
			2020: "https://example.com/reports/AAPL/2020.html",
		}))

		Expect(table.Rows[1].Symbol).To(Equal("MSFT"))
		_, ok := table.Rows[1].URL(2019)
		Expect(ok).To(BeFalse())
	})

	It("reads the first sheet of a workbook", func() {
		fn := filepath.Join(dir, "reports.xlsx")

		workbook := excelize.NewFile()
		Expect(workbook.SetSheetRow("Sheet1", "A1", &[]interface{}{"Stock Symbol", 2021, 2022})).To(Succeed())
		Expect(workbook.SetSheetRow("Sheet1", "A2", &[]interface{}{"AAPL", "https://example.com/AAPL/2021.html", "https://example.com/AAPL/2022.html"})).To(Succeed())
		Expect(workbook.SetSheetRow("Sheet1", "A3", &[]interface{}{"MSFT", "https://example.com/MSFT/2021.html"})).To(Succeed())
		Expect(workbook.SaveAs(fn)).To(Succeed())
		Expect(workbook.Close()).To(Succeed())

		table, err := sheet.Load(fn)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Years).To(Equal([]int{2021, 2022}))
		Expect(table.Rows).To(HaveLen(2))
		Expect(table.Rows[0].URLs).To(HaveLen(2))
		Expect(table.Rows[1].URLs).To(Equal(map[int]string{2021: "https://example.com/MSFT/2021.html"}))
	})

	It("accepts rows with fewer cells than the header", func() {
		fn := filepath.Join(dir, "reports.csv")
		content := "Stock Symbol,2019,2020\n" +
			"AAPL,https://example.com/2019.html\n" +
			"MSFT,https://example.com/MSFT/2019.html,https://example.com/MSFT/2020.html\n" +
			"GOOG\n"
		Expect(os.WriteFile(fn, []byte(content), 0644)).To(Succeed())

		table, err := sheet.Load(fn)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Rows).To(HaveLen(3))
		Expect(table.Rows[0].URLs).To(Equal(map[int]string{2019: "https://example.com/2019.html"}))
		Expect(table.Rows[1].URLs).To(HaveLen(2))
		Expect(table.Rows[2].Symbol).To(Equal("GOOG"))
		Expect(table.Rows[2].URLs).To(BeEmpty())
	})

	It("ignores a utf-8 byte order mark before the header", func() {
		fn := filepath.Join(dir, "reports.csv")
		content := "\xef\xbb\xbfStock Symbol,2019\nAAPL,https://example.com/2019.html\n"
		Expect(os.WriteFile(fn, []byte(content), 0644)).To(Succeed())

		table, err := sheet.Load(fn)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Years).To(Equal([]int{2019}))
		Expect(table.Rows).To(HaveLen(1))
		Expect(table.Rows[0].Symbol).To(Equal("AAPL"))
	})

	It("requires the symbol column", func() {
		fn := filepath.Join(dir, "reports.csv")
		Expect(os.WriteFile(fn, []byte("Ticker,2019\nAAPL,https://example.com\n"), 0644)).To(Succeed())

		_, err := sheet.Load(fn)
		Expect(errors.Is(err, sheet.ErrMissingSymbolColumn)).To(BeTrue())
	})

	It("rejects an empty file", func() {
		fn := filepath.Join(dir, "reports.csv")
		Expect(os.WriteFile(fn, []byte(""), 0644)).To(Succeed())

		_, err := sheet.Load(fn)
		Expect(errors.Is(err, sheet.ErrEmptySheet)).To(BeTrue())
	})

	It("rejects unknown file types", func() {
		_, err := sheet.Load(filepath.Join(dir, "reports.json"))
		Expect(errors.Is(err, sheet.ErrUnsupportedFormat)).To(BeTrue())
	})
})
