package rrdata

// NS, CNAME and PTR rdata is a single domain name.

func encodeNameData(data string) ([]byte, error) {
	return WriteName(nil, data)
}

func decodeNameData(msg []byte, off, end int) (string, error) {
	return readNameRData(msg, off, end, "rdata name")
}
