/*
Copyright © 2025 the ooicarbon authors.
This file is part of ooicarbon.

ooicarbon is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ooicarbon is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ooicarbon.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command ooicarbon is a command-line interface for assembling OOI
// carbon-system instrument records.
package main

import (
	"fmt"
	"os"

	"github.com/oceandata/ooicarbon/ooicarbonutil"
)

func main() {
	if err := ooicarbonutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
