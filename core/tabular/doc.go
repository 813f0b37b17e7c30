// Package tabular reads and writes delimiter-separated text files.
//
// The Reader turns a file into Records (field name -> value) and hands them
// out in bounded chunks so that very large inputs never need to be held in
// memory at once. Rows whose width differs from the header are not parsed;
// their raw text is kept in a MalformedRows sink so that nothing is dropped
// silently.
//
// Fields are split on the delimiter verbatim. There is no quoting layer: a
// value can never contain the delimiter, and the Writer emits values as-is.
//
// # Usage
//
//	r := tabular.NewReader(',', true, 1000, log)
//	var bad tabular.MalformedRows
//	chunks, err := r.Open(ctx, "folderA/employees.csv", &bad)
//	if err != nil {
//	    return err
//	}
//	defer chunks.Close()
//	for {
//	    chunk, err := chunks.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    ...
//	}
package tabular
