package keys

// rsaEncryption algorithm identifier: SEQUENCE { OID 1.2.840.113549.1.1.1, NULL }.
var rsaAlgorithmID = []byte{
	0x30, 0x0d,
	0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x01, 0x01,
	0x05, 0x00,
}

const (
	tagInteger     = 0x02
	tagOctetString = 0x04
	tagSequence    = 0x30
)

// WrapPKCS1 embeds a PKCS#1 RSAPrivateKey in a PKCS#8 PrivateKeyInfo:
// SEQUENCE { INTEGER 0, AlgorithmIdentifier, OCTET STRING pkcs1 }.
func WrapPKCS1(pkcs1 []byte) []byte {
	version := []byte{tagInteger, 0x01, 0x00}
	octet := tlv(tagOctetString, pkcs1)

	body := make([]byte, 0, len(version)+len(rsaAlgorithmID)+len(octet))
	body = append(body, version...)
	body = append(body, rsaAlgorithmID...)
	body = append(body, octet...)
	return tlv(tagSequence, body)
}

func tlv(tag byte, value []byte) []byte {
	l := derLength(len(value))
	out := make([]byte, 0, 1+len(l)+len(value))
	out = append(out, tag)
	out = append(out, l...)
	return append(out, value...)
}

// derLength encodes n in DER definite form: short form below 128, otherwise
// 0x80|k followed by k big-endian bytes.
func derLength(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var be []byte
	for v := n; v > 0; v >>= 8 {
		be = append([]byte{byte(v)}, be...)
	}
	return append([]byte{0x80 | byte(len(be))}, be...)
}
