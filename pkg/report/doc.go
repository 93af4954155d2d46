/*
Package report records computed determinants.

Every result is rendered as one line, "<input>: <determinant>\n", and handed
to a Sink. Sinks are safe for concurrent use because batch tasks record from
many workers at once; each Record writes one whole line, so lines from
different tasks never interleave.

Available sinks:

  - WriterSink writes to any io.Writer.
  - FileSink appends to a file, creating it if needed. Existing content is
    never truncated.
  - RedisSink pushes lines onto a Redis list with RPUSH.
  - MultiSink fans one entry out to several sinks.

A sink can be wrapped with Instrument to count records, errors and bytes in
Prometheus.

	sink, err := report.NewFileSink("fileOut.txt")
	if err != nil {
		return err
	}
	defer sink.Close()

	_ = sink.Record(ctx, report.Entry{Input: "fileIn-1.txt", Determinant: -2})
*/
package report
